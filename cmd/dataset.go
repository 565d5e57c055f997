package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoverse/canopy/norm"
)

var (
	datasetIn  string
	datasetOut string
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Normalize a JSON dataset of units",
	Run: func(cmd *cobra.Command, args []string) {
		if datasetIn == "" {
			fmt.Println("error: Please provide an input dataset with -i")
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine, err := norm.New(cfgFile)
		if err != nil {
			logger.Fatal("Failed to initialize engine", zap.Error(err))
		}

		units, err := norm.LoadDataset(datasetIn)
		if err != nil {
			logger.Fatal("Failed to load dataset", zap.Error(err))
		}

		results, err := norm.ProcessUnits(ctx, logger, engine, units)
		if err != nil {
			logger.Error("Error processing units", zap.Error(err))
			os.Exit(1)
		}

		if datasetOut == "" {
			printResults(logger, results, true, "")
			return
		}
		if err := norm.WriteJSON(datasetOut, results); err != nil {
			logger.Fatal("Failed to write results", zap.Error(err))
		}
		fmt.Printf("Results written: %s\n", datasetOut)
	},
}

func init() {
	datasetCmd.Flags().StringVarP(&datasetIn, "input", "i", "", "Input dataset path (JSON array of units)")
	datasetCmd.Flags().StringVarP(&datasetOut, "output", "o", "", "Output path for result records")
}
