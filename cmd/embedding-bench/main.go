// Package main provides the embedding-bench binary. It evaluates embedding
// files against a medical ontology and keeps an append-only result cache.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kydenul/log"
	"github.com/spf13/cobra"

	eb "github.com/kydenul/embedding-bench"
)

const (
	Version = "0.1.0"
	appName = "embedding-bench"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		logConfigPath string
		logLevel      string
	)

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Benchmark medical concept embeddings against an ontology",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&logConfigPath, "log-config", "", "kydenul/log YAML config file")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level when no log config is given")

	newLogger := func(fromConfig string) log.Logger {
		path := logConfigPath
		if path == "" {
			path = fromConfig
		}
		if path != "" {
			opt, err := log.LoadFromFile(path)
			if err == nil {
				return log.NewLog(opt)
			}
			fmt.Fprintf(os.Stderr, "Warning: failed to load log config, using defaults: %v\n", err)
		}
		return log.NewLog(&log.Options{Level: logLevel})
	}

	cmd.AddCommand(runCmd(newLogger), tableCmd(newLogger), trimCmd(newLogger))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func runCmd(newLogger func(string) log.Logger) *cobra.Command {
	var (
		configPath string
		envFile    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate every configured embedding and append the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnv(envFile); err != nil {
				return err
			}

			cfg, err := eb.LoadFromYAML(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := newLogger(cfg.LogConfigPath)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sink, err := openSinks(ctx, cfg.Output, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := sink.Close(); err != nil {
					logger.Errorf("Failed to close result sinks, error: %v", err)
				}
			}()

			evaluation, err := eb.NewEvaluationFromConfig(cfg, sink, logger)
			if err != nil {
				return err
			}

			records, err := evaluation.Run(ctx)
			if err != nil {
				return err
			}

			table := eb.BuildTable(records)
			if err := eb.WriteTable(os.Stdout, table); err != nil {
				return err
			}
			if cfg.Output.TablePath != "" {
				return writeTableFile(cfg.Output.TablePath, table)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Evaluation config file (YAML)")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before the config")

	return cmd
}

// loadEnv loads a .env file when it exists; variables already set win
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func openSinks(ctx context.Context, output eb.OutputConfig, logger log.Logger) (eb.ResultSink, error) {
	var sinks eb.MultiSink

	if output.CSVPath != "" {
		csvSink, err := eb.NewCSVSink(output.CSVPath)
		if err != nil {
			return nil, err
		}
		logger.Infof("Appending results to CSV cache, path: %s", output.CSVPath)
		sinks = append(sinks, csvSink)
	}

	if output.PostgresDSN != "" {
		pgSink, err := eb.NewPostgresSink(ctx, output.PostgresDSN)
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		logger.Infof("Appending results to Postgres")
		sinks = append(sinks, pgSink)
	}

	if len(sinks) == 0 {
		return nil, fmt.Errorf("%w: no result sink configured", eb.ErrInvalidConfiguration)
	}
	return sinks, nil
}

func tableCmd(newLogger func(string) log.Logger) *cobra.Command {
	var (
		cachePath string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Pivot the result cache into one row per embedding",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger("")

			records, err := eb.ReadRecordsFile(cachePath)
			if err != nil {
				return fmt.Errorf("read result cache: %w", err)
			}
			logger.Infof("Result cache read, path: %s, records: %d", cachePath, len(records))

			table := eb.BuildTable(records)
			if err := eb.WriteTable(os.Stdout, table); err != nil {
				return err
			}
			if outPath != "" {
				return writeTableFile(outPath, table)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cachePath, "cache", "benchmark_results.csv", "Result cache written by run")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Optional CSV output path")

	return cmd
}

func writeTableFile(path string, table *eb.Table) error {
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("create table file: %w", err)
	}
	if err := eb.WriteTableCSV(file, table); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func trimCmd(newLogger func(string) log.Logger) *cobra.Command {
	var (
		inputPath  string
		outputPath string
		maxWords   int
	)

	cmd := &cobra.Command{
		Use:   "trim",
		Short: "Keep the first N entries of a .vec file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" || outputPath == "" {
				return errors.New("both --input and --output are required")
			}
			logger := newLogger("")

			emb, err := eb.NewEmbeddingLoader(logger).LoadFromFile(inputPath, eb.EmbeddingLabels{})
			if err != nil {
				return err
			}

			out, err := os.Create(outputPath) //nolint:gosec
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			written, err := eb.WriteVec(out, emb, maxWords)
			if err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}

			logger.Infof("Trimmed vector file, input: %s, output: %s, words: %d, dimension: %d",
				inputPath, outputPath, written, emb.Dimension())
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Input .vec file path")
	cmd.Flags().StringVar(&outputPath, "output", "", "Output .vec file path")
	cmd.Flags().IntVar(&maxWords, "max", 100000, "Maximum number of words to keep")

	return cmd
}
