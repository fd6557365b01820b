package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linnington/esheets-assets/internal/credentials"
	"github.com/linnington/esheets-assets/internal/models"
	"github.com/linnington/esheets-assets/internal/validation"
)

func newIdentityCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Show and edit the learner identity",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the learner identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), a.session().GetIdentity())
		},
	})

	var first, last, classCode string
	set := &cobra.Command{
		Use:   "set",
		Short: "Change identity fields; unset flags are left alone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.IdentityPatch
			if cmd.Flags().Changed("first") {
				patch.FirstName = &first
			}
			if cmd.Flags().Changed("last") {
				patch.LastName = &last
			}
			if cmd.Flags().Changed("class-code") {
				patch.ClassCode = &classCode
			}

			rec := a.session().SetIdentity(patch)
			if patch.ClassCode != nil && rec.ClassCode == "" && *patch.ClassCode != "" {
				a.logger.Warn("class code rejected, stored as empty")
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
	set.Flags().StringVar(&first, "first", "", "First name")
	set.Flags().StringVar(&last, "last", "", "Last name")
	set.Flags().StringVar(&classCode, "class-code", "", "Classroom code, e.g. ABCD-EFGH")
	cmd.AddCommand(set)

	return cmd
}

func newClassCodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classcode",
		Short: "Generate and check classroom codes",
		// Class codes need no storage.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}

	var count int
	gen := &cobra.Command{
		Use:   "new",
		Short: "Generate random classroom codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for i := 0; i < count; i++ {
				code, err := credentials.GenerateClassCode()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), code)
			}
			return nil
		},
	}
	gen.Flags().IntVarP(&count, "count", "n", 1, "How many codes to generate")
	cmd.AddCommand(gen)

	cmd.AddCommand(&cobra.Command{
		Use:   "check <code>",
		Short: "Normalize a classroom code and report whether it is valid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized := validation.NormalizeClassCode(args[0])
			if err := validation.ValidateClassCode(normalized); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), normalized)
			return nil
		},
	})

	return cmd
}
