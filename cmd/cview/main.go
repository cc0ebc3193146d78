// Commercial View — risk, delinquency and disbursement planning for a
// commercial-factoring book.
//
// Main CLI entrypoint using the cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Jeninefer/Commercial-View-sub000/internal/application/dto"
	"github.com/Jeninefer/Commercial-View-sub000/internal/application/usecase"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/port"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/service"
	"github.com/Jeninefer/Commercial-View-sub000/internal/infrastructure/alerting"
	"github.com/Jeninefer/Commercial-View-sub000/internal/infrastructure/config"
	"github.com/Jeninefer/Commercial-View-sub000/internal/infrastructure/export"
	"github.com/Jeninefer/Commercial-View-sub000/internal/infrastructure/ingestion"
	"github.com/Jeninefer/Commercial-View-sub000/internal/infrastructure/observability"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set by the root PersistentPreRunE.
var (
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cview",
	Short: "Commercial View — factoring book risk and disbursement engine",
	Long: `Commercial View plans disbursements for a commercial-factoring book.

It classifies incoming financing requests into risk tiers, reconciles the
payment ledgers into per-loan days past due, and selects which requests to
fund under cash and concentration limits. Runs are deterministic: the same
inputs and reference date always produce the same outputs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		logger = observability.InitLogger(cfg.Logging.LogConfig())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(dpdCmd)
	rootCmd.AddCommand(classifyCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Commercial View %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Plan Command ---

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run one full planning cycle over the configured input tables",
	Long: `Run one planning cycle: load the request, portfolio and ledger tables,
classify and score every request, reconcile days past due, select
disbursements under cash and concentration limits, and export the
selection table, run report and delinquency summary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseDateFlag(cmd, "as-of")
		if err != nil {
			return err
		}
		cashValue, _ := cmd.Flags().GetString("cash")
		if cashValue == "" {
			return fmt.Errorf("--cash is required, e.g. --cash 1500000")
		}
		cash, err := decimal.NewFromString(cashValue)
		if err != nil {
			return fmt.Errorf("parse --cash %q: %w", cashValue, err)
		}
		overrideIOPaths(cmd, &cfg.IO)

		eng, err := wireEngine(cfg, logger)
		if err != nil {
			return err
		}
		summary, err := eng.plan.Execute(cmd.Context(), dto.PlanRequest{
			ReferenceDate: asOf,
			AvailableCash: cash,
		})
		if err != nil {
			return err
		}
		return printJSON(summary)
	},
}

func init() {
	planCmd.Flags().String("as-of", "", "reference date for the run, YYYY-MM-DD (required)")
	planCmd.Flags().String("cash", "", "available cash to disburse (required)")
	planCmd.Flags().String("requests", "", "loan request table, overrides the configured path")
	planCmd.Flags().String("portfolio", "", "portfolio table, overrides the configured path")
	planCmd.Flags().String("schedule", "", "payment schedule ledger, overrides the configured path")
	planCmd.Flags().String("payments", "", "payments ledger, overrides the configured path")
	planCmd.Flags().String("out", "", "output directory, overrides the configured path")
}

// --- DPD Command ---

var dpdCmd = &cobra.Command{
	Use:   "dpd",
	Short: "Reconcile the payment ledgers into a days-past-due summary",
	Long: `Merge the payment schedule against observed payments and export a per-loan
days-past-due summary with risk scores, without running a selection.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseDateFlag(cmd, "as-of")
		if err != nil {
			return err
		}
		overrideIOPaths(cmd, &cfg.IO)

		eng, err := wireEngine(cfg, logger)
		if err != nil {
			return err
		}
		summary, err := eng.dpd.Execute(cmd.Context(), dto.DPDReportRequest{ReferenceDate: asOf})
		if err != nil {
			return err
		}
		return printJSON(summary)
	},
}

func init() {
	dpdCmd.Flags().String("as-of", "", "reference date for the reconciliation, YYYY-MM-DD (required)")
	dpdCmd.Flags().String("schedule", "", "payment schedule ledger, overrides the configured path")
	dpdCmd.Flags().String("payments", "", "payments ledger, overrides the configured path")
	dpdCmd.Flags().String("out", "", "output directory, overrides the configured path")
}

// --- Classify Command ---

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify the request table without running a selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		overrideIOPaths(cmd, &cfg.IO)

		eng, err := wireEngine(cfg, logger)
		if err != nil {
			return err
		}
		summary, err := eng.classify.Execute(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(summary)
	},
}

func init() {
	classifyCmd.Flags().String("requests", "", "loan request table, overrides the configured path")
	classifyCmd.Flags().String("out", "", "output directory, overrides the configured path")
}

// --- Engine wiring ---

type engine struct {
	plan     *usecase.RunPlanningCycleUseCase
	dpd      *usecase.GenerateDPDReportUseCase
	classify *usecase.ClassifyRequestsUseCase
}

func wireEngine(cfg *config.Config, logger *slog.Logger) (*engine, error) {
	// Domain services.
	classifier, err := service.NewClassifier(cfg.Engine.ClassifierConfig())
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	standardizer := service.NewStandardizer(service.NewSchemaResolver())
	reconciler, err := service.NewTimelineReconciler(cfg.Engine.ReconcilerConfig(), standardizer, logger)
	if err != nil {
		return nil, fmt.Errorf("build reconciler: %w", err)
	}
	scorer, err := service.NewRiskScorer(cfg.Engine.ScorerWeights(), reconciler.DPDBucketCount())
	if err != nil {
		return nil, fmt.Errorf("build scorer: %w", err)
	}
	services := usecase.PlanningServices{
		Classifier:  classifier,
		Reconciler:  reconciler,
		Scorer:      scorer,
		Optimizer:   service.NewDisbursementOptimizer(logger),
		AlertEngine: service.NewAlertEngine(cfg.Alerts.Thresholds()),
	}

	// Infrastructure adapters.
	loader := ingestion.NewCSVTableLoader(ingestion.Paths{
		Requests:  cfg.IO.RequestsPath,
		Portfolio: cfg.IO.PortfolioPath,
		Schedule:  cfg.IO.SchedulePath,
		Payments:  cfg.IO.PaymentsPath,
	}, standardizer, logger)
	exporter := export.NewCSVExporter(cfg.IO.OutputDir, logger)

	var sink port.AlertSink = alerting.NewLogAlertSink(logger)
	if cfg.IO.AlertsPath != "" {
		sink = alerting.MultiSink{sink, alerting.NewFileAlertSink(cfg.IO.AlertsPath, logger)}
	}

	limits := usecase.Limits{
		MaxCandidates: cfg.Limits.MaxCandidates,
		MaxLedgerRows: cfg.Limits.MaxLedgerRows,
	}

	// Use cases.
	return &engine{
		plan:     usecase.NewRunPlanningCycleUseCase(loader, exporter, sink, services, cfg.Constraints.Constraints(), limits, logger),
		dpd:      usecase.NewGenerateDPDReportUseCase(loader, exporter, classifier, reconciler, scorer, logger),
		classify: usecase.NewClassifyRequestsUseCase(loader, exporter, classifier, logger),
	}, nil
}

// --- Helpers ---

// overrideIOPaths applies per-run path flags on top of the configured paths.
// Flags a command does not register read back as empty and leave the config
// untouched, so every command shares this helper.
func overrideIOPaths(cmd *cobra.Command, io *config.IOConfig) {
	if v, _ := cmd.Flags().GetString("requests"); v != "" {
		io.RequestsPath = v
	}
	if v, _ := cmd.Flags().GetString("portfolio"); v != "" {
		io.PortfolioPath = v
	}
	if v, _ := cmd.Flags().GetString("schedule"); v != "" {
		io.SchedulePath = v
	}
	if v, _ := cmd.Flags().GetString("payments"); v != "" {
		io.PaymentsPath = v
	}
	if v, _ := cmd.Flags().GetString("out"); v != "" {
		io.OutputDir = v
	}
}

func parseDateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return time.Time{}, fmt.Errorf("--%s is required, YYYY-MM-DD", name)
	}
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --%s %q: expected YYYY-MM-DD", name, value)
	}
	return day, nil
}

// printJSON writes a run summary to stdout. Logs go to stderr, so piping
// stdout yields clean JSON.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
