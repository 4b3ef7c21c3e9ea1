package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/Vodeneev/ticketev/internal/calculator/calculator"
	"github.com/Vodeneev/ticketev/internal/parser/parsers/lottery"
	"github.com/Vodeneev/ticketev/internal/pkg/config"
	"github.com/Vodeneev/ticketev/internal/pkg/logging"
	"github.com/Vodeneev/ticketev/internal/pkg/models"
	"github.com/Vodeneev/ticketev/internal/pkg/notify"
	"github.com/Vodeneev/ticketev/internal/pkg/performance"
	"github.com/Vodeneev/ticketev/internal/pkg/report"
)

const defaultInputPath = "lottery-main.html"

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout))
}

// realMain returns the process exit code so deferred cleanup runs before exit.
func realMain(args []string, stdout io.Writer) int {
	var (
		configPath string
		inputPath  string
		exportDir  string
		workers    int
		detail     bool
	)

	fs := flag.NewFlagSet("ticketev", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "Path to YAML config file (can be set via CONFIG_PATH env var)")
	fs.StringVar(&inputPath, "input", "", "Saved odds page to read (overrides input.html_path)")
	fs.StringVar(&exportDir, "export-dir", "", "Write JSON and CSV reports to this directory (overrides report.export_dir)")
	fs.IntVar(&workers, "workers", 0, "Games estimated in parallel (overrides estimator.workers)")
	fs.BoolVar(&detail, "detail", false, "Print every game's prize tiers")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}
	if inputPath != "" {
		cfg.Input.HTMLPath = inputPath
	}
	if cfg.Input.HTMLPath == "" {
		cfg.Input.HTMLPath = defaultInputPath
	}
	if exportDir != "" {
		cfg.Report.ExportDir = exportDir
	}
	if workers > 0 {
		cfg.Estimator.Workers = workers
	}
	if detail {
		cfg.Report.Detail = true
	}

	logger, logCloser, err := logging.SetupLogger(&cfg.Logging, "ticketev")
	if err != nil {
		log.Printf("Failed to setup logging: %v", err)
		return 1
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, stdout); err != nil {
		logger.Error("Run failed", "error", err)
		return 1
	}
	return 0
}

// loadConfig falls back to defaults plus environment overrides when no file is given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Parse(nil)
	}
	return config.Load(path)
}

// run parses the snapshot, estimates every game and reports. Individual game
// failures are reported, not returned.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	runID := uuid.New()
	logger = logger.With("run_id", runID.String())

	views, err := resolveViews(cfg.Report.Views)
	if err != nil {
		return err
	}
	renderer, err := report.NewRenderer(out, cfg.Report.Language)
	if err != nil {
		return err
	}

	tracker := performance.NewTracker()
	defer tracker.PrintSummary(logger)

	logger.Info("Reading snapshot", "path", cfg.Input.HTMLPath)
	var games []models.Game
	err = tracker.Track(performance.StageParse, func() error {
		var perr error
		games, perr = lottery.NewParser(logger).ParseFile(cfg.Input.HTMLPath)
		return perr
	})
	if err != nil {
		return err
	}
	if len(games) == 0 {
		return errors.New("no games found in snapshot")
	}

	var results []models.GameResult
	_ = tracker.Track(performance.StageEstimate, func() error {
		results = calculator.NewEstimator(&cfg.Estimator, logger).EstimateAll(ctx, games)
		return nil
	})
	tracker.SetGames(len(results), len(report.Failed(results)))

	err = tracker.Track(performance.StageReport, func() error {
		return writeReport(renderer, out, cfg.Report.Detail, views, results)
	})
	if err != nil {
		return err
	}

	if cfg.Report.ExportDir != "" {
		err = tracker.Track(performance.StageExport, func() error {
			exporter := report.NewExporter(runID, cfg.Input.HTMLPath)
			jsonPath, csvPath, xerr := exporter.WriteFiles(cfg.Report.ExportDir, results)
			if xerr != nil {
				return xerr
			}
			logger.Info("Report exported", "json", jsonPath, "csv", csvPath)
			return nil
		})
		if err != nil {
			return err
		}
	}

	if cfg.Notify.Enabled() {
		_ = tracker.Track(performance.StageNotify, func() error {
			return notifyResults(ctx, cfg.Notify, results, logger)
		})
	}
	return nil
}

func writeReport(renderer *report.Renderer, out io.Writer, detail bool, views []view, results []models.GameResult) error {
	if detail {
		for _, gr := range results {
			if err := renderer.WriteDetail(gr); err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "\n%s\n\n", strings.Repeat("#", 50))
	}
	for _, v := range views {
		if err := renderer.WriteView(v.title, report.Sorted(results, v.key, v.ascending)); err != nil {
			return err
		}
	}
	return renderer.WriteFailures(report.Failed(results))
}

type view struct {
	title     string
	key       report.SortKey
	ascending bool
}

func resolveViews(cfgViews []config.ViewConfig) ([]view, error) {
	views := make([]view, 0, len(cfgViews))
	for _, v := range cfgViews {
		key, err := report.ParseSortKey(v.SortBy)
		if err != nil {
			return nil, err
		}
		title := v.Title
		if title == "" {
			title = fmt.Sprintf("Sorted by %s", key)
		}
		views = append(views, view{title: title, key: key, ascending: v.Ascending})
	}
	return views, nil
}

// notifyResults logs delivery problems; callers do not fail the run on them.
func notifyResults(ctx context.Context, cfg config.NotifyConfig, results []models.GameResult, logger *slog.Logger) error {
	notifier, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	if err != nil {
		logger.Warn("Telegram notifier unavailable", "error", err)
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := notifier.SendSummary(sendCtx, results, cfg.TopN); err != nil {
		logger.Warn("Failed to send Telegram summary", "error", err)
		return err
	}
	return nil
}
