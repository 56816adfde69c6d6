package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/annolens/annolens/internal/export"
	"github.com/annolens/annolens/internal/infrastructure/monitoring/logging"
)

type analyzeOptions struct {
	Format string
	Out    string
	Policy string
}

// newAnalyzeCmd creates the one-shot analysis command.
func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Run a single annotation pass over a text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Format, "format", "f", "json", "output format (json or html)")
	f.StringVarP(&opts.Out, "out", "o", "", "output path (default stdout)")
	f.StringVar(&opts.Policy, "policy", "", "gating policy override (smart or permissive)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, path string, opts *analyzeOptions) error {
	cc, err := getCLIContext(cmd)
	if err != nil {
		return err
	}

	format, err := export.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	text := string(raw)

	pipe, err := buildPipeline(cc.Config, cc.Logger, opts.Policy)
	if err != nil {
		return err
	}

	res, err := pipe.Generate(cmd.Context(), text, 0)
	if err != nil {
		return err
	}
	for name, aerr := range res.AdapterErrors {
		cc.Logger.Warn("adapter failed, partial results",
			logging.String("adapter", name),
			logging.Err(aerr))
	}

	rendered, err := export.Render(format, text, res.Annotations)
	if err != nil {
		return err
	}
	return writeOutput(cmd, opts.Out, rendered)
}

// writeOutput writes rendered bytes to a file, or to stdout when path is
// empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
