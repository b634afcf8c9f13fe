package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	cfgpkg "github.com/KaramelBytes/mitelab-cli/internal/config"
	"github.com/KaramelBytes/mitelab-cli/internal/dataset"
	"github.com/KaramelBytes/mitelab-cli/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	logLevel string
	// Ingestion flags (override config if set)
	flagDelimiter  string
	flagDecimal    string
	flagSheetName  string
	flagSheetIndex int

	// Loaded configuration
	cfg *cfgpkg.Global

	logger *logrus.Logger

	// dataLoader is shared by every command in the process.
	dataLoader *pipeline.Loader
	loaderOpt  dataset.LoadOptions
)

var rootCmd = &cobra.Command{
	Use:   "mitelab",
	Short: "mitelab: explore mite populations against weekly weather",
	Long: `mitelab loads a weekly mite-count and weather dataset (CSV/TSV/XLSX), filters it by year,
summarises it, plots seasonal trends and correlations, and fits an OLS model of Mite
against selected weather factors.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", errorText(err))
		os.Exit(1)
	}
}

// errorText prefers the classified user message for pipeline errors.
func errorText(err error) string {
	if pipeline.ErrorKind(err) != "" {
		return pipeline.UserMessage(err)
	}
	return err.Error()
}

func init() {
	cobra.OnInitialize(loadEnv, loadConfig, setupLogging)

	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.mitelab/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")
	rootCmd.PersistentFlags().StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (sniffed if omitted)")
	rootCmd.PersistentFlags().StringVar(&flagDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	rootCmd.PersistentFlags().StringVar(&flagSheetName, "sheet-name", "", "XLSX: sheet name to read")
	rootCmd.PersistentFlags().IntVar(&flagSheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")

	logger = logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func loadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to read .env: %v\n", err)
	}
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{LogLevel: "warn", Decimal: "."}
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("delimiter") {
		cfg.Delimiter = flagDelimiter
	}
	if f.Changed("decimal") {
		cfg.Decimal = flagDecimal
	}
	if f.Changed("sheet-name") {
		cfg.SheetName = flagSheetName
	}
	if f.Changed("sheet-index") {
		cfg.SheetIndex = flagSheetIndex
	}
	if f.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
}

func setupLogging() {
	logger.SetOutput(os.Stderr)
	name := "warn"
	if cfg != nil && cfg.LogLevel != "" {
		name = cfg.LogLevel
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, defaulting to warn")
		level = logrus.WarnLevel
	}
	if debug {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
}

// loadOptions converts the effective configuration into dataset options.
func loadOptions() (dataset.LoadOptions, error) {
	var opt dataset.LoadOptions
	if cfg == nil {
		return opt, nil
	}
	switch strings.ToLower(cfg.Delimiter) {
	case "":
	case ",":
		opt.Delimiter = ','
	case ";":
		opt.Delimiter = ';'
	case "\t", "tab":
		opt.Delimiter = '\t'
	default:
		return opt, fmt.Errorf("unsupported delimiter: %s (use ','|';'|'tab')", cfg.Delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Decimal)) {
	case "", ".", "dot":
		opt.Decimal = '.'
	case ",", "comma":
		opt.Decimal = ','
	default:
		return opt, fmt.Errorf("unsupported decimal separator: %s (use '.'|'comma')", cfg.Decimal)
	}
	opt.SheetName = cfg.SheetName
	opt.SheetIndex = cfg.SheetIndex
	return opt, nil
}

// loadData reads and normalizes a dataset file with the effective options.
func loadData(path string) (*dataset.Dataset, error) {
	opt, err := loadOptions()
	if err != nil {
		return nil, err
	}
	if dataLoader == nil || opt != loaderOpt {
		dataLoader = pipeline.NewLoader(opt, logger)
		loaderOpt = opt
	}
	return dataLoader.Load(path)
}
