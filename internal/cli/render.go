package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/arrowpush/internal/ir"
	"github.com/roach88/arrowpush/internal/molecule"
	"github.com/roach88/arrowpush/internal/render"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Output string
	Width  int
	Height int
	Arrows string // JSON array of arrow annotations
}

// RenderOutput is the JSON payload of the render command.
type RenderOutput struct {
	Path   string `json:"path"`
	Bytes  int    `json:"bytes"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Atoms  int    `json:"atoms"`
	Arrows int    `json:"arrows"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <smiles>",
		Short: "Render a structure to PNG",
		Long: `Draw a structure and write it as a PNG image, optionally with arrow
overlays given as JSON.

Examples:
  arrowpush render C=CC -o propene.png
  arrowpush render C=CC -o propene.png --arrows '[{"start_atom":0,"end_atom":1,"type":"pi_attack"}]'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output PNG path (required)")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().IntVar(&opts.Width, "width", render.DefaultWidth, "image width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", render.DefaultHeight, "image height in pixels")
	cmd.Flags().StringVar(&opts.Arrows, "arrows", "", "JSON array of arrows to overlay")

	return cmd
}

func runRender(opts *RenderOptions, smiles string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	var arrows []ir.ArrowAnnotation
	if opts.Arrows != "" {
		if err := json.Unmarshal([]byte(opts.Arrows), &arrows); err != nil {
			_ = formatter.Error(ErrCodeInvalidInput, fmt.Sprintf("invalid --arrows: %v", err), nil)
			return WrapExitError(ExitCommandError, "invalid --arrows", err)
		}
	}

	mol, err := molecule.NewService().Parse(smiles)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid SMILES", err)
	}

	r, err := render.New(opts.Width, opts.Height)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid size", err)
	}

	png, err := r.Render(mol, arrows...)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "render failed", err)
	}

	if err := os.WriteFile(opts.Output, png, 0644); err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write image", err)
	}
	formatter.VerboseLog("Wrote %d bytes to %s", len(png), opts.Output)

	out := RenderOutput{
		Path:   opts.Output,
		Bytes:  len(png),
		Width:  opts.Width,
		Height: opts.Height,
		Atoms:  mol.NumAtoms(),
		Arrows: len(arrows),
	}
	if formatter.JSON() {
		return formatter.Success(out)
	}
	fmt.Fprintf(formatter.Writer, "\u2713 Wrote %s (%dx%d, %d atoms)\n", out.Path, out.Width, out.Height, out.Atoms)
	return nil
}
