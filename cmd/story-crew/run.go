// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// defaultTheme is the theme used by run when --theme is not given.
const defaultTheme = "时间旅行与遗憾"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Write one story (the default when no command is given)",
	Long: `Run executes the outline, writing and editing tasks once for a theme.
The draft is written to story_draft.md and the edited story to
story_final.md in the output directory; both are overwritten on every run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		theme, _ := cmd.Flags().GetString("theme")
		return runOnce(cmd.Context(), cli, theme, cmd.OutOrStdout())
	},
}

func init() {
	runCmd.Flags().String("theme", defaultTheme, "story theme")
	rootCmd.AddCommand(runCmd)
}

// runOnce writes one story for theme and prints the final output.
func runOnce(ctx context.Context, a *app, theme string, w io.Writer) error {
	banner(w, "🎬 启动故事创作团队")
	fmt.Fprintf(w, "📝 故事主题：%s\n\n", theme)

	c, _, err := a.newCrew(ctx)
	if err != nil {
		return err
	}

	res, err := c.Kickoff(ctx, map[string]string{"theme": theme})
	if err != nil {
		a.logger.Error("crew execution failed", zap.String("theme", theme), zap.Error(err))
		fmt.Fprintln(w)
		errorBanner(w, "❌ 执行过程中出现错误")
		fmt.Fprintf(w, "错误信息：%v\n\n", err)
		return err
	}

	fmt.Fprintln(w)
	banner(w, "✅ 故事创作完成！")
	fmt.Fprintln(w, "\n📄 生成的文件：")
	for _, t := range res.Tasks {
		if t.OutputFile != "" {
			fmt.Fprintf(w, "  - %s\n", t.OutputFile)
		}
	}
	fmt.Fprintln(w)

	if res.Raw != "" {
		banner(w, "📖 最终输出摘要")
		fmt.Fprintln(w, res.Raw)
		fmt.Fprintln(w)
	}
	a.logger.Debug("run finished", zap.String("run_id", res.RunID), zap.Int("tasks", len(res.Tasks)))
	return nil
}
