// Package main is the entry point for the bracket execution daemon.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/vqhuy/bracketd/internal/alerting"
	"github.com/vqhuy/bracketd/internal/config"
	"github.com/vqhuy/bracketd/internal/engine"
	"github.com/vqhuy/bracketd/internal/executor"
	"github.com/vqhuy/bracketd/internal/journal"
	"github.com/vqhuy/bracketd/internal/metrics"
	"github.com/vqhuy/bracketd/internal/signal"
	"github.com/vqhuy/bracketd/internal/types"
	"github.com/vqhuy/bracketd/internal/venue"
	"github.com/vqhuy/bracketd/internal/venue/binance"
	"github.com/vqhuy/bracketd/internal/venue/paper"
)

// Version information (set by build flags).
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		cmdVersion()
	case "help", "-h", "--help":
		printUsage()
	case "validate":
		cmdValidate(os.Args[2:])
	case "exec":
		cmdExec(os.Args[2:])
	case "enter":
		cmdEnter(os.Args[2:])
	case "close":
		cmdClose(os.Args[2:])
	case "notify":
		cmdNotify(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`bracketd - Bracketed Order Execution Engine

Usage:
  bracketd <command> [options]

Commands:
  exec       Execute one raw signal payload and print the result
  enter      Open a bracketed position
  close      Flatten the open position for an instrument
  notify     Forward an alert to the notification channel
  validate   Validate configuration file
  version    Show version information
  help       Show this help message

Examples:
  bracketd enter --config config.yaml --symbol BTCUSDT --direction long --qty 0.5
  bracketd close --config config.yaml --symbol BTCUSDT
  bracketd exec --config config.yaml --payload '{"action":"enter","direction":"long","instrument":"BTCUSDT","quantity":"0.5"}'
  echo 'signal: BUY, ticker: BTCUSDT, qty: 0.5' | bracketd exec --config config.yaml
  bracketd validate --config config.yaml

Use "bracketd <command> --help" for more information about a command.`)
}

func cmdVersion() {
	fmt.Printf("bracketd version %s\n", Version)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Git commit: %s\n", GitCommit)
}

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Configuration is valid!")
	fmt.Printf("  Venue: %s\n", cfg.Venue.Type)
	fmt.Printf("  Leverage: %dx\n", cfg.Trade.Leverage)
	fmt.Printf("  Stop-loss offset: %s\n", cfg.Trade.StopLossOffset)
	fmt.Printf("  Take-profit offset: %s\n", cfg.Trade.TakeProfitOffset)
}

func cmdExec(args []string) {
	fs := flag.NewFlagSet("exec", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	payload := fs.String("payload", "", "Signal payload (default: read from stdin)")
	verbose := fs.Bool("verbose", false, "Verbose output")
	fs.Parse(args)

	raw := []byte(*payload)
	if len(raw) == 0 {
		var err error
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read payload from stdin: %v\n", err)
			os.Exit(1)
		}
	}

	sig, err := signal.Parse(raw)
	if err != nil {
		printResult(engine.Result{Status: "error", Detail: err.Error()})
		os.Exit(1)
	}

	runSignal(*configPath, *verbose, sig)
}

func cmdEnter(args []string) {
	fs := flag.NewFlagSet("enter", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	symbol := fs.String("symbol", "", "Instrument symbol (required)")
	direction := fs.String("direction", "", "Position direction: long or short (required)")
	qty := fs.String("qty", "", "Order quantity (required)")
	verbose := fs.Bool("verbose", false, "Verbose output")
	fs.Parse(args)

	if *symbol == "" || *direction == "" || *qty == "" {
		fmt.Fprintln(os.Stderr, "Error: --symbol, --direction and --qty are required")
		fs.Usage()
		os.Exit(1)
	}

	sig, err := signal.Parse([]byte(fmt.Sprintf(
		`{"action":"enter","direction":%q,"instrument":%q,"quantity":%q}`,
		*direction, *symbol, *qty,
	)))
	if err != nil {
		printResult(engine.Result{Status: "error", Detail: err.Error()})
		os.Exit(1)
	}

	runSignal(*configPath, *verbose, sig)
}

func cmdClose(args []string) {
	fs := flag.NewFlagSet("close", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	symbol := fs.String("symbol", "", "Instrument symbol (required)")
	verbose := fs.Bool("verbose", false, "Verbose output")
	fs.Parse(args)

	if *symbol == "" {
		fmt.Fprintln(os.Stderr, "Error: --symbol is required")
		fs.Usage()
		os.Exit(1)
	}

	sig, err := signal.Parse([]byte(fmt.Sprintf(`{"action":"close","instrument":%q}`, *symbol)))
	if err != nil {
		printResult(engine.Result{Status: "error", Detail: err.Error()})
		os.Exit(1)
	}

	runSignal(*configPath, *verbose, sig)
}

func cmdNotify(args []string) {
	fs := flag.NewFlagSet("notify", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	message := fs.String("message", "", "Message text (default: read from stdin)")
	verbose := fs.Bool("verbose", false, "Verbose output")
	fs.Parse(args)

	raw := []byte(*message)
	if len(raw) == 0 {
		var err error
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read message from stdin: %v\n", err)
			os.Exit(1)
		}
	}

	sig, err := signal.Parse(raw)
	if err != nil {
		printResult(engine.Result{Status: "error", Detail: err.Error()})
		os.Exit(1)
	}
	sig.Action = types.ActionNotify

	runSignal(*configPath, *verbose, sig)
}

// runSignal wires the stack, executes one signal, prints the result
// envelope and exits non-zero on failure.
func runSignal(configPath string, verbose bool, sig types.Signal) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	// Shutdown signals stop new work; a sequence already past entry
	// submission still runs to completion of the bracket attempt.
	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		slog.Error("failed to initialize", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	res := eng.Handle(ctx, sig)
	printResult(res)

	if res.Status != "success" {
		cleanup()
		os.Exit(1)
	}
}

// buildEngine wires the full stack from configuration.
func buildEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, func(), error) {
	recorder := metrics.NewRecorder()

	gw, err := buildGateway(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	exec := executor.New(cfg.ToExecutorConfig(), gw, recorder, logger)

	alerter, err := buildAlerter(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	jnl, err := buildJournal(cfg)
	if err != nil {
		return nil, nil, err
	}

	var srv *metrics.Server
	if cfg.Metrics.Enabled {
		srv = metrics.NewServer(metrics.ServerConfig{
			Port:        cfg.Metrics.Port,
			MetricsPath: cfg.Metrics.Path,
			HealthPath:  "/health",
		}, logger)
		srv.RegisterHealthCheck("gateway", func() metrics.Check {
			connected := gw.State() == venue.StateConnected
			recorder.RecordGatewayUp(connected)
			if connected {
				return metrics.Check{Status: "healthy"}
			}
			return metrics.Check{Status: "unhealthy", Message: gw.State().String()}
		})
		_ = srv.Start()
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()

		if srv != nil {
			_ = srv.Shutdown(shutdownCtx)
		}
		_ = jnl.Close()
	}

	return engine.New(exec, alerter, jnl, recorder, logger), cleanup, nil
}

func buildGateway(cfg *config.Config, logger *slog.Logger) (venue.Gateway, error) {
	switch cfg.Venue.Type {
	case "binance":
		return binance.NewClient(cfg.ToVenueConfig(), logger), nil
	case "paper":
		return paper.NewGateway(cfg.ToPaperConfig(), logger), nil
	default:
		return nil, fmt.Errorf("unknown venue type %q", cfg.Venue.Type)
	}
}

func buildAlerter(cfg *config.Config, logger *slog.Logger) (alerting.Alerter, error) {
	if !cfg.Alerting.Enabled || len(cfg.Alerting.Channels) == 0 {
		return alerting.NewConsoleAlerter(logger), nil
	}

	multi := alerting.NewMultiAlerter(logger)
	for _, ch := range cfg.Alerting.Channels {
		switch ch.Type {
		case "telegram":
			multi.AddAlerter(alerting.NewTelegramAlerter(alerting.TelegramConfig{
				BotToken: ch.BotToken,
				ChatID:   ch.ChatID,
				Timeout:  10 * time.Second,
			}))
		case "console":
			multi.AddAlerter(alerting.NewConsoleAlerter(logger))
		default:
			return nil, fmt.Errorf("unknown alert channel type %q", ch.Type)
		}
	}
	return multi, nil
}

func buildJournal(cfg *config.Config) (journal.Journal, error) {
	if !cfg.Journal.Enabled {
		return journal.Noop{}, nil
	}
	return journal.NewSQLiteJournal(cfg.Journal.Path)
}

func printResult(res engine.Result) {
	out, _ := json.Marshal(res)
	fmt.Println(string(out))
}
