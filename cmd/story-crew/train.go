// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/story-crew/internal/calibrate"
)

const (
	trainTheme = "科幻冒险"
	trainData  = "这是一个优秀故事的示例...\n（这里可以提供训练数据）"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Run the crew on sample input and record training examples",
	Long: `Train runs the pipeline on a fixed sample theme, records every task
output with the training data in the calibration database, and exports all
recorded examples as JSON.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().Int("iterations", 0, "number of training iterations (default from config)")
	trainCmd.Flags().String("theme", trainTheme, "sample theme")
	trainCmd.Flags().String("training-data", trainData, "training data recorded with each example")
	trainCmd.Flags().String("filename", "", "training data export file (default from config)")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := cli.cfg.Calibration

	iterations, _ := cmd.Flags().GetInt("iterations")
	if iterations == 0 {
		iterations = cfg.Iterations
	}
	theme, _ := cmd.Flags().GetString("theme")
	data, _ := cmd.Flags().GetString("training-data")
	filename, _ := cmd.Flags().GetString("filename")
	if filename == "" {
		filename = cfg.TrainingFile
	}

	c, _, err := cli.newCrew(ctx)
	if err != nil {
		return err
	}
	store, err := calibrate.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	cli.logger.Info("training started",
		zap.String("theme", theme),
		zap.Int("iterations", iterations),
		zap.String("db", cfg.DBPath))

	err = calibrate.Train(ctx, c, store, calibrate.TrainOptions{
		Inputs:       map[string]string{"theme": theme},
		TrainingData: data,
		Iterations:   iterations,
		ExportPath:   filename,
	})
	if err != nil {
		return fmt.Errorf("training: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ 训练完成，训练数据已写入 %s\n", filename)
	return nil
}
