// Command godriftml profiles CSV sources and reports data-quality
// anomalies.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hed1ad/godriftml/pkg/batch"
	"github.com/hed1ad/godriftml/pkg/config"
	"github.com/hed1ad/godriftml/pkg/io/csv"
	"github.com/hed1ad/godriftml/pkg/pipeline"
	"github.com/hed1ad/godriftml/pkg/profile"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		sourceID   string
		noHeader   bool
	)

	root := &cobra.Command{
		Use:           "godriftml",
		Short:         "Profile tabular data and detect quality anomalies",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config")
	root.PersistentFlags().StringVarP(&sourceID, "source-id", "s", "", "source identifier (defaults to the file path)")
	root.PersistentFlags().BoolVar(&noHeader, "no-header", false, "treat the first CSV row as data")

	check := &cobra.Command{
		Use:   "check <file.csv>...",
		Short: "Profile batches and run the detector family",
		Long: "Profiles each CSV file in order against the same source id, so a\n" +
			"later file is checked against the profiles of the earlier ones.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			store := profile.NewStore(cfg.Store.Capacity)
			runner := pipeline.NewRunner(store,
				pipeline.WithConfig(cfg.Detection),
				pipeline.WithLogger(logger),
			)

			for _, path := range args {
				b, err := readBatch(path, !noHeader)
				if err != nil {
					return err
				}
				id := sourceID
				if id == "" {
					id = path
				}
				rep, err := runner.Check(id, b)
				if err != nil {
					return err
				}
				if err := printJSON(cmd, rep); err != nil {
					return err
				}
			}
			return nil
		},
	}

	prof := &cobra.Command{
		Use:   "profile <file.csv>",
		Short: "Print the statistical profile of one CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readBatch(args[0], !noHeader)
			if err != nil {
				return err
			}
			id := sourceID
			if id == "" {
				id = args[0]
			}
			p, err := profile.NewProfiler().Profile(b, id)
			if err != nil {
				return err
			}
			return printJSON(cmd, p)
		},
	}

	root.AddCommand(check, prof)
	return root
}

func setup(configPath string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zcfg.Build()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func readBatch(path string, hasHeader bool) (*batch.Batch, error) {
	reader, err := csv.NewReader(path, csv.WithHeader(hasHeader))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return reader.Read()
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
