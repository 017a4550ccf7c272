package testutil

// FixedRequestIDGenerator returns the same request ID every time.
//
// Scenarios run under one fixed ID so that repeated runs produce
// byte-identical audit rows and golden traces.
//
// Thread-safety: FixedRequestIDGenerator is stateless and safe for concurrent use.
type FixedRequestIDGenerator struct {
	id string
}

// DefaultRequestID is used when a scenario does not name its own.
const DefaultRequestID = "test-request-default"

// NewFixedRequestIDGenerator creates a generator returning id.
//
// The ID is typically set in the scenario YAML:
//
//	request_id: "scenario-00000000-0000-0000-0000-000000000001"
//
// If id is empty, Generate() returns DefaultRequestID.
func NewFixedRequestIDGenerator(id string) *FixedRequestIDGenerator {
	if id == "" {
		id = DefaultRequestID
	}
	return &FixedRequestIDGenerator{id: id}
}

// Generate returns the fixed request ID.
//
// Implements server.RequestIDGenerator.
func (g *FixedRequestIDGenerator) Generate() string {
	return g.id
}
