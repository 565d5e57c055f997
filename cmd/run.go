package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoverse/canopy/formatter"
	tt "github.com/gnoverse/canopy/internal/types"
	"github.com/gnoverse/canopy/norm"
)

var (
	passNames     string
	runJsonOutput bool
	outPath       string
	dbPath        string
)

var runCmd = &cobra.Command{
	Use:   "run [paths...]",
	Short: "Normalize source files or directories",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine, err := norm.New(cfgFile)
		if err != nil {
			logger.Fatal("Failed to initialize engine", zap.Error(err))
		}

		if passNames != "" && passNames != "all" {
			names := strings.Split(passNames, ",")
			for i := range names {
				names[i] = strings.TrimSpace(names[i])
			}
			if err := engine.SetOrder(names); err != nil {
				logger.Fatal("Invalid pass selection", zap.Error(err))
			}
		}

		results, err := norm.ProcessFiles(ctx, logger, engine, args)
		if err != nil {
			logger.Error("Error processing files", zap.Error(err))
			os.Exit(1)
		}

		printResults(logger, results, runJsonOutput, outPath)

		if dbPath != "" {
			db, err := norm.OpenResultsDB(dbPath)
			if err != nil {
				logger.Fatal("Failed to open results database", zap.Error(err))
			}
			defer db.Close()
			if err := db.Append(results); err != nil {
				logger.Fatal("Failed to append results", zap.Error(err))
			}
		}

		for _, result := range results {
			if result.Status != tt.StatusSuccess {
				os.Exit(1)
			}
		}
	},
}

func init() {
	runCmd.Flags().StringVar(&passNames, "passes", "", "Comma-separated list of passes to run (default: the core sequence)")
	runCmd.Flags().BoolVar(&runJsonOutput, "json", false, "Output results in JSON format")
	runCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	runCmd.Flags().StringVar(&dbPath, "db", "", "SQLite results database path")
}

func printResults(logger *zap.Logger, results []tt.UnitResult, isJson bool, jsonOutput string) {
	if !isJson {
		fmt.Println(formatter.Generate(results))
		return
	}

	d, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		logger.Error("Error marshalling results to JSON", zap.Error(err))
		return
	}
	if jsonOutput == "" {
		fmt.Println(string(d))
		return
	}
	if err := os.WriteFile(jsonOutput, d, 0o644); err != nil {
		logger.Error("Error writing JSON output file", zap.Error(err))
	}
}
