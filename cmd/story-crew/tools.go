// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/story-crew/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools [name]",
	Short: "List the story tools or call one directly",
	Long: `Without a name, tools lists every registered tool with its description.
With a name, it calls the tool with the given --arg key=value pairs and
prints the result, for example:

  story-crew tools word_count_tool --arg text="你好世界"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := tools.Default()
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			listTools(out, reg)
			return nil
		}
		kv, _ := cmd.Flags().GetStringToString("arg")
		return callTool(out, reg, args[0], kv)
	},
}

func init() {
	toolsCmd.Flags().StringToString("arg", nil, "tool argument as key=value (repeatable)")
	rootCmd.AddCommand(toolsCmd)
}

func listTools(w io.Writer, reg *tools.Registry) {
	for _, name := range reg.Names() {
		t, _ := reg.Get(name)
		fmt.Fprintf(w, "%s\n  %s\n", titleStyle.Render(name), t.Specification().Description)
	}
}

func callTool(w io.Writer, reg *tools.Registry, name string, kv map[string]string) error {
	input := make(tools.Input, len(kv))
	for k, v := range kv {
		input[k] = v
	}
	out, err := reg.Call(name, input)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}
