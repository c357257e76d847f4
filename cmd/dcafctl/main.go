package main

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dcaf-go/dcaf/cmd/sam/config"
	"github.com/dcaf-go/dcaf/engine"
	"github.com/dcaf-go/dcaf/internal/version"
	"github.com/dcaf-go/dcaf/storage"
)

var rootCmd = &cobra.Command{
	Use:           "dcafctl",
	Short:         "dcafctl can help you manage your SAM",
	Long:          "dcafctl can help you manage your SAM: its admin users, the catalog, and the issued tickets",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configFile string

var (
	store *storage.Storage
	eng   *engine.Engine
)

// loadStorage opens the storage of the SAM configured in configFile
func loadStorage(*cobra.Command, []string) error {
	config.Load(configFile)
	c := config.Get()
	backs, s, err := config.LoadStorageBackends(c.Storage, c.API.Admin.PasswordHashing)
	if err != nil {
		return err
	}
	keys, err := c.PSK.NewStore(s)
	if err != nil {
		return err
	}
	store = s
	eng = engine.New(backs, keys)
	return nil
}

func closeStorage(*cobra.Command, []string) error {
	if store == nil {
		return nil
	}
	return store.Close()
}

// storageCommand marks cmd as needing the storage
func storageCommand(cmd *cobra.Command) *cobra.Command {
	cmd.PersistentPreRunE = loadStorage
	cmd.PersistentPostRunE = closeStorage
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	log.SetLevel(log.WarnLevel)
	rootCmd.Version = version.Current.String()
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "the sam config file to use")
	rootCmd.AddCommand(
		storageCommand(usersCmd),
		storageCommand(camsCmd),
		storageCommand(serversCmd),
		storageCommand(ticketsCmd),
		storageCommand(revocationsCmd),
		decodeCmd,
	)
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
