package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/trade-engine/minute-store/internal/config"
	"github.com/trade-engine/minute-store/internal/export"
	"github.com/trade-engine/minute-store/internal/source"
	"github.com/trade-engine/minute-store/internal/store"
)

const usage = `usage: minute-store [-config config.yml] <command> [flags]

commands:
  write   densify CSV observations into a store
  query   look up one value by instrument, field and minute
  export  dump one instrument's observed minutes to parquet
`

func main() {
	configPath := flag.String("config", "config.yml", "Path to configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := createLogger(cfg.Application.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	var cmdErr error
	switch flag.Arg(0) {
	case "write":
		cmdErr = runWrite(cfg, logger, flag.Args()[1:])
	case "query":
		cmdErr = runQuery(cfg, logger, flag.Args()[1:])
	case "export":
		cmdErr = runExport(cfg, logger, flag.Args()[1:])
	default:
		flag.Usage()
		os.Exit(2)
	}

	if cmdErr != nil {
		logger.Fatal("Command failed", zap.String("command", flag.Arg(0)), zap.Error(cmdErr))
	}
}

func runWrite(cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("write", flag.ExitOnError)
	dataDir := fs.String("data", "", "Directory of per-instrument CSV files")
	storeDir := fs.String("store", cfg.Storage.BasePath, "Store destination directory")
	anchorStr := fs.String("anchor", "", "First trading day (YYYY-MM-DD)")
	fs.Parse(args)

	if *dataDir == "" || *anchorStr == "" {
		return fmt.Errorf("write requires -data and -anchor")
	}
	anchor, err := time.Parse("2006-01-02", *anchorStr)
	if err != nil {
		return fmt.Errorf("parse anchor: %w", err)
	}

	cal, err := cfg.TradingCalendar()
	if err != nil {
		return err
	}
	session, err := cfg.TradingSession()
	if err != nil {
		return err
	}

	paths, err := csvPaths(*dataDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no CSV files under %s", *dataDir)
	}

	writer := store.NewWriter(cal, session, cfg.Storage.PriceScale, logger)
	return writer.Write(*storeDir, anchor, source.NewCSVSource(paths, session.Location))
}

func runQuery(cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	storeDir := fs.String("store", cfg.Storage.BasePath, "Store directory")
	instrument := fs.String("instrument", "", "Instrument id")
	field := fs.String("field", "close", "Field (open|high|low|close|volume|dt)")
	at := fs.String("at", "", "Minute timestamp (RFC3339)")
	fs.Parse(args)

	if *instrument == "" || *at == "" {
		return fmt.Errorf("query requires -instrument and -at")
	}
	t, err := time.Parse(time.RFC3339, *at)
	if err != nil {
		return fmt.Errorf("parse -at: %w", err)
	}

	reader, err := openReader(cfg, *storeDir, logger)
	if err != nil {
		return err
	}
	defer reader.Close()

	f := store.Field(*field)
	value, err := reader.ValueAt(*instrument, f, t)
	if err != nil {
		return err
	}

	if f.IsPrice() {
		fmt.Printf("%s %s %s = %g\n", *instrument, *field, *at, reader.Unscale(value))
	} else {
		fmt.Printf("%s %s %s = %d\n", *instrument, *field, *at, value)
	}
	return nil
}

func runExport(cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	storeDir := fs.String("store", cfg.Storage.BasePath, "Store directory")
	instrument := fs.String("instrument", "", "Instrument id")
	out := fs.String("out", "", "Output parquet file")
	fs.Parse(args)

	if *instrument == "" || *out == "" {
		return fmt.Errorf("export requires -instrument and -out")
	}

	reader, err := openReader(cfg, *storeDir, logger)
	if err != nil {
		return err
	}
	defer reader.Close()

	if err := export.Export(reader, *instrument, *out); err != nil {
		return err
	}
	logger.Info("Exported instrument",
		zap.String("instrument", *instrument),
		zap.String("out", *out))
	return nil
}

func openReader(cfg *config.Config, dir string, logger *zap.Logger) (*store.Reader, error) {
	cal, err := cfg.TradingCalendar()
	if err != nil {
		return nil, err
	}
	session, err := cfg.TradingSession()
	if err != nil {
		return nil, err
	}
	return store.Open(dir, cal, session, cfg.Storage.PriceScale, logger)
}

// csvPaths maps instrument ids to CSV files under dir; the id is the file
// name without extension.
func csvPaths(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	paths := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".csv")
		paths[id] = filepath.Join(dir, e.Name())
	}
	return paths, nil
}

func createLogger(level string) (*zap.Logger, error) {
	var config zap.Config

	switch level {
	case "debug":
		config = zap.NewDevelopmentConfig()
	case "info":
		config = zap.NewProductionConfig()
	case "warn":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config = zap.NewProductionConfig()
	}

	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	return config.Build()
}
