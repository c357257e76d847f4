package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Inspect and revoke issued tickets",
}

var ticketsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the issued tickets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tickets, err := eng.ListTickets()
		if err != nil {
			return err
		}
		return printJSON(tickets)
	},
}

var ticketsRevokeCmd = &cobra.Command{
	Use:   "revoke <id>...",
	Short: "Revoke tickets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			revoked, err := eng.RevokeTicket(id)
			if err != nil {
				return err
			}
			if !revoked {
				return errors.Errorf("ticket %s not found", id)
			}
			fmt.Printf("revoked ticket %s\n", id)
		}
		return nil
	},
}

var revocationsCmd = &cobra.Command{
	Use:   "revocations",
	Short: "Inspect revocations",
}

var revocationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the revocations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		revocations, err := eng.ListRevocations()
		if err != nil {
			return err
		}
		return printJSON(revocations)
	},
}

func init() {
	ticketsCmd.AddCommand(ticketsListCmd, ticketsRevokeCmd)
	revocationsCmd.AddCommand(revocationsListCmd)
}
