package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write progress and identity to a JSON backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
			}
			if err := ensureDir(output); err != nil {
				return err
			}
			if err := a.backup().Export(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <backup.json>",
		Short: "Restore progress and identity from a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.backup().Import(args[0]); err != nil {
				return err
			}
			a.logger.Info("backup imported", zap.String("path", args[0]))
			fmt.Fprintf(cmd.OutOrStdout(), "Backup imported from %s\n", args[0])
			return nil
		},
	}
}

func newReportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the progress table to an xlsx spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureDir(output); err != nil {
				return err
			}
			if err := a.backup().ExportReport(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "progress.xlsx", "Output file path")
	return cmd
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}
