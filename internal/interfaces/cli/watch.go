package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/annolens/annolens/internal/export"
	"github.com/annolens/annolens/internal/infrastructure/monitoring/logging"
	"github.com/annolens/annolens/internal/pipeline"
)

type watchOptions struct {
	Format   string
	Out      string
	Policy   string
	Debounce time.Duration
}

// newWatchCmd creates the continuous-analysis command.  It watches a file
// for writes, waits for a quiet window, and re-renders the report after each
// settled edit.
func newWatchCmd() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Watch a text file and re-annotate after each settled edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Format, "format", "f", "html", "output format (json or html)")
	f.StringVarP(&opts.Out, "out", "o", "", "report path (default <file>.annotations.<format>)")
	f.StringVar(&opts.Policy, "policy", "", "gating policy override (smart or permissive)")
	f.DurationVar(&opts.Debounce, "debounce", 0, "quiet window after the last write (default from config)")

	return cmd
}

// passResult pairs a finished generation with the text it ran against.
type passResult struct {
	text string
	res  *pipeline.Result
	err  error
}

func runWatch(cmd *cobra.Command, path string, opts *watchOptions) error {
	cc, err := getCLIContext(cmd)
	if err != nil {
		return err
	}
	logger := cc.Logger.Named("watch")

	format, err := export.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	outPath := opts.Out
	if outPath == "" {
		outPath = path + ".annotations." + string(format)
	}

	debounce := opts.Debounce
	if debounce == 0 {
		debounce = cc.Config.Pipeline.DebounceWindow
	}

	pipe, err := buildPipeline(cc.Config, logger, opts.Policy)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the parent directory: editors that replace the file via rename
	// would otherwise drop the watch after the first save.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	target := filepath.Clean(path)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// epoch counts writes to the watched file.  A pass snapshots the epoch
	// when it starts; the result is discarded when later writes arrived
	// while it ran.
	var epoch atomic.Uint64

	debounceTimer := time.NewTimer(debounce)
	debounceTimer.Stop()
	results := make(chan passResult, 1)
	running := false
	rerun := false

	startPass := func() {
		running = true
		// Snapshot the epoch before reading: a write that lands between the
		// two is then caught by the staleness check on completion.
		passEpoch := epoch.Load()
		raw, err := os.ReadFile(path)
		if err != nil {
			running = false
			logger.Warn("read failed, pass skipped", logging.Err(err))
			return
		}
		text := string(raw)
		go func() {
			res, err := pipe.Generate(ctx, text, passEpoch)
			results <- passResult{text: text, res: res, err: err}
		}()
	}

	logger.Info("watching",
		logging.String("file", path),
		logging.String("out", outPath),
		logging.Duration("debounce", debounce))

	// Render once at startup so the report exists before the first edit.
	startPass()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			epoch.Add(1)
			debounceTimer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", logging.Err(err))

		case <-debounceTimer.C:
			if running {
				rerun = true
				continue
			}
			startPass()

		case pr := <-results:
			running = false
			if pr.err != nil {
				logger.Warn("generation failed", logging.Err(pr.err))
			} else if pr.res.Epoch != epoch.Load() {
				logger.Debug("discarding stale pass",
					logging.Uint64("pass_epoch", pr.res.Epoch),
					logging.Uint64("current_epoch", epoch.Load()))
			} else {
				writeReport(logger, format, outPath, pr)
			}
			if rerun {
				rerun = false
				startPass()
			}
		}
	}
}

func writeReport(logger logging.Logger, format export.Format, outPath string, pr passResult) {
	for name, aerr := range pr.res.AdapterErrors {
		logger.Warn("adapter failed, partial results",
			logging.String("adapter", name),
			logging.Err(aerr))
	}
	rendered, err := export.Render(format, pr.text, pr.res.Annotations)
	if err != nil {
		logger.Error("render failed", logging.Err(err))
		return
	}
	if err := os.WriteFile(outPath, rendered, 0o644); err != nil {
		logger.Error("write report failed", logging.Err(err))
		return
	}
	logger.Info("report updated",
		logging.String("path", outPath),
		logging.Int("annotations", len(pr.res.Annotations)),
		logging.Int("score", pr.res.Score))
}
