package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/whatsfordinner/dinner/internal/dishes"
	"github.com/whatsfordinner/dinner/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	GroupID: "list",
	Short:   "Write the list to a file for sharing",
	Long: `Write the active list to MijnGerechtenlijst.json so it can be shared
and imported elsewhere. The file goes to the temp directory unless --dir is
given. --format yaml or toml writes a human-editable copy instead; only the
JSON file can be imported again.

Use --stdout to print the export instead of writing a file.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		formatName, _ := cmd.Flags().GetString("format")
		toStdout, _ := cmd.Flags().GetBool("stdout")

		a := mustOpen(appOptions{})
		defer a.close()

		format, err := dishes.ParseFormat(formatName)
		if err != nil {
			a.fail("%v", err)
		}

		if toStdout {
			data, err := a.model.ExportAs(format)
			if err != nil {
				a.fail("%v", err)
			}
			fmt.Print(string(data))
			return
		}

		if dir == "" {
			dir = os.TempDir()
		}
		path, err := a.model.ExportFile(dir, format)
		if err != nil {
			a.fail("%v", err)
		}
		ui.Success(os.Stdout, "Exported %d dishes to %s", a.model.Len(), path)
	},
}

var importCmd = &cobra.Command{
	Use:     "import <file>",
	GroupID: "list",
	Short:   "Replace the list with an exported file",
	Long: `Replace the active list with the dishes in a JSON export. The history
is not touched. A file that is not a dish list is ignored and the list stays
as it was.

Unless --no-backup is given, the current list is first exported to the
backups directory in the data directory.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		noBackup, _ := cmd.Flags().GetBool("no-backup")

		a := mustOpen(appOptions{offlinePush: true})
		defer a.close()
		a.onHeadChange()

		opts := dishes.ImportOptions{Path: args[0]}
		if !noBackup {
			opts.BackupDir = filepath.Join(cfg.Home, "backups")
		}

		result, err := a.model.ImportFile(opts)
		if err != nil {
			a.fail("%v", err)
		}
		if !result.Imported {
			ui.Warning(os.Stdout, "%s is not a dish list, nothing imported", args[0])
			return
		}
		if result.BackupCreated != "" {
			fmt.Println(ui.Subtle("Backup: " + result.BackupCreated))
		}
		ui.Success(os.Stdout, "Imported %d dishes", result.Dishes)
	},
}

func init() {
	exportCmd.Flags().String("dir", "", "Directory to write to (default: temp directory)")
	exportCmd.Flags().StringP("format", "f", "json", "Export format: json, yaml or toml")
	exportCmd.Flags().Bool("stdout", false, "Print instead of writing a file")
	importCmd.Flags().Bool("no-backup", false, "Do not back up the current list first")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
