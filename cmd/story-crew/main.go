// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the story-crew CLI: a three-role
// story pipeline (ideation, writing, editing) with run, repl, train and
// test modes.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command. Without arguments it runs the pipeline once.
var rootCmd = &cobra.Command{
	Use:   "story-crew",
	Short: "Run a story-writing crew: ideator, writer and editor",
	Long: `story-crew runs three roles in a fixed order for a theme: the ideator
outlines a story, the writer drafts it to story_draft.md, and the editor
polishes it into story_final.md.

Run without arguments to write one story on the default theme. Use repl to
enter themes interactively, and train or test to calibrate the crew.

Monitoring is enabled by setting AGENT_MONITOR_ENABLED=true and
AGENT_MONITOR_URL to the monitor's base URL.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cli.init(cmd, viper.GetViper())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		cli.close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return cmd.Usage()
		}
		return runOnce(cmd.Context(), cli, defaultTheme, cmd.OutOrStdout())
	},
}

func init() {
	cobra.EnableCaseInsensitive = true
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./story-crew.yaml or ~/.config/story-crew/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("output-dir", "", "directory for story_draft.md and story_final.md")
	rootCmd.PersistentFlags().String("crew-config", "", "directory with agents.yaml and tasks.yaml (default: built-in)")
	rootCmd.PersistentFlags().String("model", "", "AI model identifier")

	bindFlag("output.dir", "output-dir")
	bindFlag("crew_dir", "crew-config")
	bindFlag("llm.model", "model")
}

// bindFlag binds a persistent flag to a viper key.
func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("story-crew")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "story-crew"))
		}
	}

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
