package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/codewithboateng/archlint/internal/ir"
	"github.com/codewithboateng/archlint/internal/reporting"
	"github.com/codewithboateng/archlint/internal/rules"
	"github.com/codewithboateng/archlint/internal/security"
	"github.com/codewithboateng/archlint/internal/shared"
	"github.com/codewithboateng/archlint/internal/storage"
)

const (
	exitOK        = 0
	exitError     = 1
	exitUsage     = 2
	exitThreshold = 3
	exitCancelled = 130
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitUsage)
	}
	switch os.Args[1] {
	case "analyze":
		os.Exit(analyzeCmd(os.Args[2:]))
	case "report":
		os.Exit(reportCmd(os.Args[2:]))
	case "diff":
		os.Exit(diffCmd(os.Args[2:]))
	case "rules":
		os.Exit(rulesCmd(os.Args[2:]))
	case "serve":
		os.Exit(serveCmd(os.Args[2:]))
	case "hash-token":
		os.Exit(hashTokenCmd(os.Args[2:]))
	case "version":
		fmt.Println("archlint IR:", ir.Version)
	default:
		usage()
		os.Exit(exitUsage)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `archlint - layered architecture rule checker

Usage:
  archlint analyze --path <facts> [--out ./reports] [--db ./archlint.db] [--rules pack.yaml]
                   [--disable id,id] [--min-severity MAJOR|CRITICAL] [--workers N]
                   [--fail-on MAJOR|CRITICAL] [--config ./archlint.yaml]
  archlint report  --run <run-id> [--out ./reports] [--db ./archlint.db]
  archlint diff    --base <run-id> --head <run-id> [--out ./reports] [--db ./archlint.db]
  archlint rules   [--rules pack.yaml] [--config ./archlint.yaml]
  archlint serve   [--addr :8080] [--db ./archlint.db] [--config ./archlint.yaml]
  archlint hash-token [--token <t>]
  archlint version
`)
}

// loadConfig reads the config file and sets up the default logger. A broken
// config file is reported and stops the command.
func loadConfig(path string) (shared.Config, *slog.Logger, bool) {
	cfg, err := shared.LoadConfig(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return cfg, nil, false
	}
	return cfg, shared.InitLogger(os.Stderr, cfg.Logging.Format, cfg.Logging.Level), true
}

func analyzeCmd(args []string) int {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	inPath := fs.String("path", "", "Facts file or directory")
	outDir := fs.String("out", "", "Output directory for reports")
	dbPath := fs.String("db", "", "SQLite database path")
	pack := fs.String("rules", "", "User rule pack (YAML)")
	disable := fs.String("disable", "", "Comma-separated rule ids or aliases to skip")
	minSev := fs.String("min-severity", "", "Only evaluate rules at or above this severity")
	workers := fs.Int("workers", 0, "Parallel units (0 = NumCPU)")
	failOn := fs.String("fail-on", "", "Exit 3 if any issue at or above this severity remains")
	_ = fs.Parse(args)

	cfg, logger, ok := loadConfig(*configPath)
	if !ok {
		return exitError
	}

	// precedence: flags > env > config > defaults
	if *inPath != "" {
		cfg.Analysis.Sources = []string{*inPath}
	}
	if *outDir != "" {
		cfg.Reporting.OutDir = *outDir
	}
	if *dbPath != "" {
		cfg.Database.DSN = *dbPath
	}
	if *pack != "" {
		cfg.Rules.Pack = *pack
	}
	if *disable != "" {
		cfg.Rules.Disabled = append(cfg.Rules.Disabled, strings.Split(*disable, ",")...)
	}
	if *minSev != "" {
		cfg.Rules.SeverityThreshold = *minSev
	}
	if *workers > 0 {
		cfg.Analysis.Workers = *workers
	}
	fail := strings.ToUpper(strings.TrimSpace(*failOn))
	if fail != "" && !rules.ValidSeverity(fail) {
		fmt.Fprintln(os.Stderr, "analyze: --fail-on must be MAJOR or CRITICAL")
		return exitUsage
	}
	if len(cfg.Analysis.Sources) == 0 {
		fmt.Fprintln(os.Stderr, "analyze: --path (or analysis.sources in config) is required")
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := analyze(ctx, cfg, logger, nil)
	if err != nil && res == nil {
		if errors.Is(err, rules.ErrConfig) {
			logger.Error("rule configuration", "err", err)
			fmt.Fprintln(os.Stderr, "analyze:", err)
			return exitError
		}
		logger.Error("analyze failed", "err", err)
		return exitError
	}

	fmt.Printf("Analyze OK\n  Run: %s\n  Issues: %d (waived %d)\n  Errors: %d\n  JSON: %s\n  HTML: %s\n  DB: %s\n",
		res.Run.ID, len(res.Run.Issues), res.Run.Waived, len(res.Run.Errors), res.JSONPath, res.HTMLPath, cfg.Database.DSN)

	if res.Run.Cancelled {
		logger.Warn("analysis cancelled; partial run stored", "run", res.Run.ID, "err", err)
		return exitCancelled
	}
	if fail != "" {
		for _, is := range res.Run.Issues {
			if rules.SeverityAtLeast(string(is.Severity), fail) {
				return exitThreshold
			}
		}
	}
	return exitOK
}

func reportCmd(args []string) int {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	runID := fs.String("run", "", "Run ID")
	outDir := fs.String("out", "", "Output directory")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	cfg, logger, ok := loadConfig(*configPath)
	if !ok {
		return exitError
	}
	if *outDir == "" {
		*outDir = cfg.Reporting.OutDir
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *runID == "" {
		fmt.Fprintln(os.Stderr, "report: --run is required")
		return exitUsage
	}

	db, err := storage.OpenSQLite(*dbPath)
	if err != nil {
		logger.Error("db open error", "err", err)
		return exitError
	}
	defer db.Close()

	run, err := db.LoadRun(*runID)
	if err != nil {
		logger.Error("load run error", "err", err)
		return exitError
	}
	jsonPath, err := reporting.WriteJSON(run.ID, *outDir, &run)
	if err != nil {
		logger.Error("write json report", "err", err)
		return exitError
	}
	htmlPath, err := reporting.WriteHTML(run.ID, *outDir, &run)
	if err != nil {
		logger.Error("write html report", "err", err)
		return exitError
	}
	fmt.Printf("Report OK\n  Run: %s\n  JSON: %s\n  HTML: %s\n", run.ID, jsonPath, htmlPath)
	return exitOK
}

func diffCmd(args []string) int {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	base := fs.String("base", "", "Base run ID")
	head := fs.String("head", "", "Head run ID")
	outDir := fs.String("out", "", "Output directory")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	cfg, logger, ok := loadConfig(*configPath)
	if !ok {
		return exitError
	}
	if *outDir == "" {
		*outDir = cfg.Reporting.OutDir
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *base == "" || *head == "" {
		fmt.Fprintln(os.Stderr, "diff: --base and --head are required")
		return exitUsage
	}
	db, err := storage.OpenSQLite(*dbPath)
	if err != nil {
		logger.Error("db open error", "err", err)
		return exitError
	}
	defer db.Close()

	br, err := db.LoadRun(*base)
	if err != nil {
		logger.Error("load base run error", "err", err)
		return exitError
	}
	hr, err := db.LoadRun(*head)
	if err != nil {
		logger.Error("load head run error", "err", err)
		return exitError
	}
	path, err := reporting.WriteDiffJSON(*base, *head, *outDir, &br, &hr)
	if err != nil {
		logger.Error("write diff", "err", err)
		return exitError
	}
	d := reporting.Diff(*base, *head, &br, &hr)
	fmt.Printf("Diff OK\n  New: %d  Removed: %d  Changed: %d\n  %s\n",
		d.Summary.NewCount, d.Summary.RemovedCount, d.Summary.ChangedCount, path)
	return exitOK
}

func hashTokenCmd(args []string) int {
	fs := flag.NewFlagSet("hash-token", flag.ExitOnError)
	tok := fs.String("token", "", "Token to hash (generated when empty)")
	_ = fs.Parse(args)

	t := *tok
	if t == "" {
		var err error
		if t, err = security.NewToken(32); err != nil {
			fmt.Fprintln(os.Stderr, "hash-token:", err)
			return exitError
		}
		fmt.Println("token:", t)
	}
	h, err := security.HashToken(t)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash-token:", err)
		return exitError
	}
	fmt.Println("hash: ", h)
	return exitOK
}
