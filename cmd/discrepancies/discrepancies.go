// Package discrepancies implements discrepancy review commands.
package discrepancies

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mkarvon/lotline/internal/conf"
	"github.com/mkarvon/lotline/internal/datastore"
	"github.com/mkarvon/lotline/internal/validator"
)

// Command creates the discrepancies command group.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discrepancies",
		Short: "Review and resolve recorded discrepancies",
	}

	cmd.AddCommand(listCommand(settings), resolveCommand(settings))
	return cmd
}

func listCommand(settings *conf.Settings) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open discrepancies, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds := datastore.New(settings)
			if err := ds.Open(); err != nil {
				return err
			}
			defer ds.Close()

			open, err := validator.New(ds).GetDiscrepancies(limit)
			if err != nil {
				return err
			}

			if len(open) == 0 {
				fmt.Println("No open discrepancies.")
				return nil
			}

			out, err := json.MarshalIndent(open, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Maximum number of discrepancies to list")
	return cmd
}

func resolveCommand(settings *conf.Settings) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "resolve [id]",
		Short: "Resolve one discrepancy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid discrepancy id: %s", args[0])
			}

			ds := datastore.New(settings)
			if err := ds.Open(); err != nil {
				return err
			}
			defer ds.Close()

			if err := validator.New(ds).ResolveDiscrepancy(uint(id), status); err != nil {
				return err
			}
			fmt.Printf("Discrepancy %d marked %s\n", id, status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", datastore.ResolutionResolved,
		"Resolution status: Resolved or Reviewed")
	return cmd
}
