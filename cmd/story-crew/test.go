// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/story-crew/internal/calibrate"
)

const testTheme = "测试主题"

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the crew on sample input and score each task output",
	Long: `Test runs the pipeline on a fixed sample theme, asks the model to grade
every task output from 1 to 10, stores the scores in the calibration
database and prints the per-task averages.`,
	Args: cobra.NoArgs,
	RunE: runTest,
}

func init() {
	testCmd.Flags().Int("iterations", 0, "number of test iterations (default from config)")
	testCmd.Flags().String("theme", testTheme, "sample theme")
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := cli.cfg.Calibration

	iterations, _ := cmd.Flags().GetInt("iterations")
	if iterations == 0 {
		iterations = cfg.Iterations
	}
	theme, _ := cmd.Flags().GetString("theme")

	c, exec, err := cli.newCrew(ctx)
	if err != nil {
		return err
	}
	store, err := calibrate.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	cli.logger.Info("test started", zap.String("theme", theme), zap.Int("iterations", iterations))

	report, err := calibrate.Test(ctx, c, calibrate.ExecutorEvaluator{Executor: exec}, store, calibrate.TestOptions{
		Inputs:     map[string]string{"theme": theme},
		Iterations: iterations,
	})
	if err != nil {
		return fmt.Errorf("testing: %w", err)
	}

	out := cmd.OutOrStdout()
	banner(out, "📊 测试结果")
	if err := report.Render(out); err != nil {
		return err
	}

	avg, err := store.AverageScores(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	banner(out, "📈 历史平均分")
	return calibrate.RenderAverages(out, report.Tasks, avg)
}
