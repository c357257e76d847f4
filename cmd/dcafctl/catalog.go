package main

import (
	"github.com/spf13/cobra"
)

var camsCmd = &cobra.Command{
	Use:   "cams",
	Short: "Inspect the known CAMs",
}

var camsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the known CAMs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cams, err := eng.ListCams()
		if err != nil {
			return err
		}
		return printJSON(cams)
	},
}

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "Inspect the known resource servers",
}

// serverListing leaves out the pre-shared key
type serverListing struct {
	Host           string `json:"host"`
	SequenceNumber int    `json:"sequence_number"`
	Resources      any    `json:"resources"`
}

var serversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the known resource servers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		servers, err := eng.ListServers()
		if err != nil {
			return err
		}
		listing := make([]serverListing, len(servers))
		for i, s := range servers {
			listing[i] = serverListing{
				Host:           s.Host,
				SequenceNumber: s.SequenceNumber,
				Resources:      s.Resources,
			}
		}
		return printJSON(listing)
	},
}

func init() {
	camsCmd.AddCommand(camsListCmd)
	serversCmd.AddCommand(serversListCmd)
}
