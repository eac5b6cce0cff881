package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var nextNumberCmd = &cobra.Command{
	Use:     "next-number",
	Short:   "Print the next invoice number of a branch",
	Example: "  invoicing next-number --branch villa1",
	RunE:    runNextNumber,
}

func init() {
	rootCmd.AddCommand(nextNumberCmd)
	nextNumberCmd.Flags().String("branch", "", "branch id (central, villa1, villa2 by default)")
	_ = nextNumberCmd.MarkFlagRequired("branch")
}

func runNextNumber(cmd *cobra.Command, _ []string) error {
	branchID, _ := cmd.Flags().GetString("branch")

	cfg, log, err := loadRuntime(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.registry.Lookup(branchID); err != nil {
		return err
	}
	next, err := a.sequencer.Next(cmd.Context(), branchID)
	if err != nil {
		return fmt.Errorf("next number for %s: %w", branchID, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), next)
	return nil
}
