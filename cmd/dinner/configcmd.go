package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/whatsfordinner/dinner/internal/config"
	"github.com/whatsfordinner/dinner/internal/ui"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "setup",
	Short:   "Manage configuration",
	Long: `Manage the process configuration in config.yaml in the data directory.

Environment variables (DINNER_STORE_BACKEND, DINNER_PEER_LISTEN, ...) and
command line flags override the file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, key := range config.Keys {
			fmt.Printf("%-18s %v\n", key, loader.Get(key))
		}
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(cfg.Path())
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")

		path := cfg.Path()
		if _, err := os.Stat(path); err == nil && !force {
			ui.Warning(os.Stdout, "%s already exists (use --force to overwrite)", path)
			return
		}

		out := config.Default()
		out.Home = ""
		if err := config.Save(path, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		ui.Success(os.Stdout, "Wrote %s", path)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in the config file",
	Long: `Set a value in the config file. Only the file is changed; environment
and flag overrides still apply on top of it.

Example:
  dinner config set store.backend dir
  dinner config set peer.listen 0.0.0.0:8787
  dinner config set log.file ~/.whatsfordinner/dinner.log`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		path := cfg.Path()
		file, err := config.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := file.Set(args[0], args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		// The home directory is where the file lives, so it is never
		// written into it.
		file.Home = ""
		if err := config.Save(path, file); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		ui.Success(os.Stdout, "Set %s = %s", args[0], args[1])
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
