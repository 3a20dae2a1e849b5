// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/story-crew/pkg/types"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Enter themes interactively and write a story for each",
	Long: `Repl reads one theme per line and runs the crew for it. Enter quit,
exit or q (any case) to leave; Ctrl-C or end of input also ends the loop.
A failed run is reported and the loop continues.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		// A second interrupt kills the process while a story is in flight.
		context.AfterFunc(ctx, stop)

		c, _, err := cli.newCrew(ctx)
		if err != nil {
			return err
		}
		kickoff := func(ctx context.Context, theme string) (*types.RunResult, error) {
			return c.Kickoff(ctx, map[string]string{"theme": theme})
		}
		return replLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cli.logger, kickoff)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}

// kickoffFunc runs the crew for one theme.
type kickoffFunc func(ctx context.Context, theme string) (*types.RunResult, error)

// isQuit reports whether line asks the REPL to exit.
func isQuit(line string) bool {
	switch strings.ToLower(line) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

// replLoop reads themes from in until quit, end of input or cancellation of
// ctx. Cancellation ends the read loop only; a run already in progress
// completes first.
func replLoop(ctx context.Context, in io.Reader, out io.Writer, logger *zap.Logger, kickoff kickoffFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	banner(out, "🎭 故事创作团队 - REPL 模式")
	fmt.Fprintln(out, "输入 'quit' 或 'exit' 退出")
	fmt.Fprintln(out)

	for {
		fmt.Fprint(out, "🎨 请输入故事主题（或 quit 退出）: ")

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\n\n👋 再见！")
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(out, "\n\n👋 再见！")
			select {
			case err := <-readErr:
				return err
			default:
				return nil
			}
		}

		theme := strings.TrimSpace(line)
		if isQuit(theme) {
			fmt.Fprintln(out, "\n👋 再见！")
			return nil
		}
		if theme == "" {
			fmt.Fprintln(out, "⚠️  请输入一个主题")
			continue
		}

		fmt.Fprintf(out, "\n📝 正在创作主题：%s 的故事...\n\n", theme)
		res, err := kickoff(context.WithoutCancel(ctx), theme)
		if err != nil {
			logger.Error("repl run failed", zap.String("theme", theme), zap.Error(err))
			fmt.Fprintf(out, "\n❌ 错误：%v\n\n", err)
			continue
		}

		fmt.Fprintln(out, "\n✅ 创作完成！")
		fmt.Fprintln(out)
		fmt.Fprintln(out, rule)
		fmt.Fprintln(out, res.Raw)
		fmt.Fprintln(out, rule)
		fmt.Fprintln(out)
	}
}
