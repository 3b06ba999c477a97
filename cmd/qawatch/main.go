package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alexanderjulianmartinez/qa-watch/internal/check"
	"github.com/alexanderjulianmartinez/qa-watch/internal/config"
	"github.com/alexanderjulianmartinez/qa-watch/internal/source"
	"github.com/alexanderjulianmartinez/qa-watch/internal/source/mysql"
	"github.com/alexanderjulianmartinez/qa-watch/internal/source/snowflake"
	"github.com/alexanderjulianmartinez/qa-watch/pkg/types"
)

var errNoData = errors.New("no data retrieved")

// The exit status is the whole machine interface: 0 means every check
// passed, 1 means anything else (fetch error, empty result, failed check).
// Stdout is for operators and log capture only.
func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "qawatch error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 2 {
		printUsage()
		return nil
	}

	switch args[1] {
	case "check":
		return runCheck(args[2:])
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		return fmt.Errorf("Unknown command: %s", args[1])
	}
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config.yaml")
	debug := fs.Bool("debug", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *configPath == "" {
		return fmt.Errorf("missing required flag: --config")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(*debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	fetcher, err := newFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	loc, err := cfg.Check.Location()
	if err != nil {
		return err
	}

	report, err := executeCheck(fetcher, cfg.Check, time.Now().In(loc))
	if err != nil {
		return err
	}

	if report.Failed {
		fmt.Println("Validation checks failed:")
		for _, issue := range report.Issues {
			fmt.Printf("- %s\n", issue.Message)
		}
		return errors.New("one or more validation checks failed")
	}

	fmt.Println("Success: All validation checks passed")
	return nil
}

// executeCheck is one full run: fetch the latest row-set, stop on an empty
// result before any check runs, otherwise hand the rows to the validator.
func executeCheck(fetcher source.Fetcher, chk config.CheckConfig, now time.Time) (*types.Report, error) {
	fmt.Printf("Connecting to %s and retrieving data...\n", fetcher.Name())
	rs, err := fetcher.Fetch(context.Background())
	if err != nil {
		return nil, err
	}

	if len(rs.Rows) == 0 {
		fmt.Println("No data retrieved from warehouse")
		return nil, errNoData
	}

	fmt.Println("Performing validation checks...")
	return check.Run(rs, chk, now), nil
}

func newFetcher(cfg *config.Config, logger *zap.Logger) (source.Fetcher, error) {
	switch cfg.Source.Driver {
	case "snowflake":
		return snowflake.New(cfg.Source, cfg.Check, logger)
	case "mysql":
		return mysql.New(cfg.Source, cfg.Check, logger)
	default:
		return nil, fmt.Errorf("unsupported source driver: %s", cfg.Source.Driver)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	lc := zap.NewProductionConfig()
	lc.OutputPaths = []string{"stderr"}
	if debug {
		lc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return lc.Build()
}

func printUsage() {
	fmt.Print(`qawatch - daily summary validation tool

Usage:
  qawatch check --config <path> [--debug]

Commands:
  check     Fetch the latest summary rows and run validation checks
  help      Show this help message
`)
}
