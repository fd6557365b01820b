package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/linnington/esheets-assets/internal/service"
)

func newProgressCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show and record worksheet progress",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show [worksheet-id]",
		Short: "Print one worksheet record, or the whole table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.session()
			if len(args) == 0 {
				return writeJSON(cmd.OutOrStdout(), s.Progress())
			}
			rec, ok := s.GetProgress(args[0])
			if !ok {
				return fmt.Errorf("no progress recorded for %q", args[0])
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "report <worksheet-id> <score> <max>",
		Short: "Record an observed score without submitting",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe(a, cmd, args, (*service.Session).ReportScore)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "commit <worksheet-id> <score> <max>",
		Short: "Submit a score",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return observe(a, cmd, args, (*service.Session).Commit)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "new-attempt <worksheet-id>",
		Short: "Start a fresh attempt, clearing completion but keeping the best score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.session()
			s.Init(service.InitConfig{WorksheetID: args[0]})
			s.NewAttempt()
			rec, _ := s.GetProgress(args[0])
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	})

	return cmd
}

func observe(a *app, cmd *cobra.Command, args []string, record func(*service.Session, float64, float64)) error {
	score, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid score %q: %w", args[1], err)
	}
	total, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid max %q: %w", args[2], err)
	}

	s := a.session()
	s.Init(service.InitConfig{WorksheetID: args[0]})
	record(s, score, total)

	rec, ok := s.GetProgress(args[0])
	if !ok {
		return fmt.Errorf("score for %q was not recorded", args[0])
	}
	return writeJSON(cmd.OutOrStdout(), rec)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
