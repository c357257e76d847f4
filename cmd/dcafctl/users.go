package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage the users of the admin api",
}

var userDisplayName string

var usersAddCmd = &cobra.Command{
	Use:   "add <username> <password>",
	Short: "Add an admin user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := store.UsersStorage().Create(args[0], args[1], userDisplayName)
		if err != nil {
			return err
		}
		fmt.Printf("added user %s\n", u.Username)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the admin users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := store.UsersStorage().List()
		if err != nil {
			return err
		}
		return printJSON(users)
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete an admin user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.UsersStorage().Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted user %s\n", args[0])
		return nil
	},
}

func init() {
	usersAddCmd.Flags().StringVar(&userDisplayName, "display-name", "", "the display name of the user")
	usersCmd.AddCommand(usersAddCmd, usersListCmd, usersDeleteCmd)
}
