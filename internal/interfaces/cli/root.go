// Package cli implements the annolens command-line interface: one-shot
// analysis, a debounced file watcher, and report export.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/annolens/annolens/internal/analysis"
	"github.com/annolens/annolens/internal/analysis/llm"
	"github.com/annolens/annolens/internal/config"
	"github.com/annolens/annolens/internal/infrastructure/monitoring/logging"
	"github.com/annolens/annolens/internal/pipeline"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config *config.Config
	Logger logging.Logger
}

type cliContextKey struct{}

// NewRootCommand creates the root command with global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "annolens",
		Short:   "annolens — text annotation from heuristic and AI analysis",
		Long:    "annolens analyzes text for AI-likeness, readability, and factual claims,\nand renders the findings as inline annotations.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initContext(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(newAnalyzeCmd(), newWatchCmd(), newExportCmd())
	return cmd
}

func initContext(cmd *cobra.Command, opts *RootOptions) error {
	var cfg *config.Config
	var err error
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			return err
		}
	} else {
		cfg, err = config.LoadFromEnv()
		if err != nil {
			return err
		}
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	// Logs go to stderr so stdout stays clean for rendered reports.
	logger, err := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}

	ctx := context.WithValue(cmd.Context(), cliContextKey{}, &CLIContext{
		Config: cfg,
		Logger: logger,
	})
	cmd.SetContext(ctx)
	return nil
}

// getCLIContext extracts the CLIContext installed by the root pre-run.
func getCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	cc, ok := cmd.Context().Value(cliContextKey{}).(*CLIContext)
	if !ok {
		return nil, fmt.Errorf("cli context not initialized")
	}
	return cc, nil
}

// buildAdapters assembles the source adapters from config.  Without a proxy
// URL only the local detectors run.
func buildAdapters(cfg *config.Config) []analysis.Adapter {
	var client *llm.Client
	if cfg.Analysis.ProxyURL != "" {
		client = llm.NewClient(cfg.Analysis.ProxyURL,
			llm.WithTimeout(cfg.Analysis.Timeout),
			llm.WithUserAgent(cfg.Analysis.UserAgent))
	}

	adapters := []analysis.Adapter{
		analysis.NewComplexityAdapter(client),
		analysis.NewSummaryAdapter(),
	}
	if client != nil {
		adapters = append(adapters,
			analysis.NewAILikenessAdapter(client),
			analysis.NewFactualAdapter(client))
	}
	return adapters
}

// buildPipeline assembles the generation pipeline per config.
func buildPipeline(cfg *config.Config, logger logging.Logger, policyOverride string) (*pipeline.Pipeline, error) {
	policyName := cfg.Pipeline.Policy
	if policyOverride != "" {
		policyName = policyOverride
	}
	policy, err := pipeline.ParsePolicy(policyName)
	if err != nil {
		return nil, err
	}

	return pipeline.New(buildAdapters(cfg),
		pipeline.WithPolicy(policy),
		pipeline.WithCaps(pipeline.Caps{
			ComplexWords:  cfg.Pipeline.MaxComplexWords,
			LongSentences: cfg.Pipeline.MaxLongSentences,
			FactualClaims: cfg.Pipeline.MaxFactualClaims,
			AIPatterns:    cfg.Pipeline.MaxAIPatterns,
		}),
		pipeline.WithLogger(logger)), nil
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCommand().Execute()
}
