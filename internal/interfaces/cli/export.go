package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/annolens/annolens/internal/domain/annotation"
	"github.com/annolens/annolens/internal/export"
	"github.com/annolens/annolens/internal/infrastructure/monitoring/logging"
	redisstore "github.com/annolens/annolens/internal/infrastructure/store/redis"
)

type exportOptions struct {
	Format string
	Out    string
}

// newExportCmd creates the command that renders previously stored
// annotations for a text file, without running a new pass.
func newExportCmd() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Render stored annotations for a text file without re-analyzing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Format, "format", "f", "html", "output format (json or html)")
	f.StringVarP(&opts.Out, "out", "o", "", "output path (default stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, path string, opts *exportOptions) error {
	cc, err := getCLIContext(cmd)
	if err != nil {
		return err
	}

	format, err := export.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	if cc.Config.Store.Backend != "redis" {
		return fmt.Errorf("export requires store.backend \"redis\", got %q", cc.Config.Store.Backend)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	text := string(raw)

	client, err := redisstore.NewClient(cmd.Context(), cc.Config.Redis)
	if err != nil {
		return err
	}
	defer client.Close()
	store := redisstore.New(client, cc.Logger,
		redisstore.WithKeyPrefix(cc.Config.Redis.KeyPrefix))

	key := annotation.DeriveKey(text)
	list, err := store.Load(cmd.Context(), key)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		cc.Logger.Warn("no stored annotations for this text",
			logging.String("key", key))
	}

	rendered, err := export.Render(format, text, list)
	if err != nil {
		return err
	}
	return writeOutput(cmd, opts.Out, rendered)
}
