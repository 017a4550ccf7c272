// Package rules holds the reaction pattern library.
//
// A Library is an ordered, append-only list of reaction rules with their
// patterns compiled at registration. Registration order is evaluation order:
// each rule's Priority is its registration index and never changes.
//
// LIFECYCLE:
//
// Rules are registered at startup (built-in rules first, then rule files),
// after which the library is frozen. A frozen library rejects further
// registration and is read without locks, so a single instance can be shared
// by every concurrent evaluation.
//
// Malformed patterns, duplicate IDs and unknown arrow types are configuration
// errors and surface as *RegistrationError before the library is ever used.
package rules
