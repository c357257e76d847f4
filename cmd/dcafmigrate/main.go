package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/dcaf-go/dcaf/cmd/sam/config"
)

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, "dcafmigrate: import the data of a legacy file based SAM\n")
	_, _ = fmt.Fprintf(os.Stderr, "\n")
	_, _ = fmt.Fprintf(os.Stderr, "Subcommands:\n")
	_, _ = fmt.Fprintf(os.Stderr, "  db       Import cams, servers, access rules, tickets, and revocations\n")
	_, _ = fmt.Fprintf(os.Stderr, "  keys     Import the pre-shared keys of keys.json into the psk store\n")
	_, _ = fmt.Fprintf(os.Stderr, "\n")
	_, _ = fmt.Fprintf(os.Stderr, "Use 'dcafmigrate <subcommand> -h' for help on a subcommand.\n")
}

// run parses the common flags of a subcommand, opens the destination
// configured in the sam config, and runs fn
func run(name string, args []string, fn func(m *migrator) error) int {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	var (
		src    = fs.String("src", "", "Path to the legacy data directory (usually 'dao')")
		conf   = fs.String("config", "", "Path to the sam config file describing the destination")
		dryRun = fs.Bool("dry-run", false, "Only read and validate the legacy data")
		v      = fs.Bool("v", false, "Verbose logging")
	)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(
			os.Stderr, "Usage: dcafmigrate %s -src <legacy_dir> [-config <sam.yaml>] [-dry-run] [-v]\n", name,
		)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *v {
		log.SetLevel(log.DebugLevel)
	}
	if *src == "" {
		_, _ = fmt.Fprintln(os.Stderr, "-src is required")
		fs.Usage()
		return 2
	}

	config.Load(*conf)
	c := config.Get()
	backs, store, err := config.LoadStorageBackends(c.Storage, c.API.Admin.PasswordHashing)
	if err != nil {
		log.WithError(err).Error("could not load storage")
		return 1
	}
	defer func() {
		_ = store.Close()
	}()
	keys, err := c.PSK.NewStore(store)
	if err != nil {
		log.WithError(err).Error("could not load psk store")
		return 1
	}
	if closer, ok := keys.(io.Closer); ok {
		defer func() {
			_ = closer.Close()
		}()
	}

	m := &migrator{
		src:    legacyDir(*src),
		backs:  backs,
		keys:   keys,
		dryRun: *dryRun,
	}
	log.WithFields(
		log.Fields{
			"src":     *src,
			"dry-run": *dryRun,
		},
	).Infof("migrating %s", name)
	if err = fn(m); err != nil {
		log.WithError(err).Errorf("%s migration failed", name)
		return 1
	}
	log.WithFields(
		log.Fields{
			"cams":        m.stats.Cams,
			"servers":     m.stats.Servers,
			"rules":       m.stats.Rules,
			"tickets":     m.stats.Tickets,
			"revocations": m.stats.Revocations,
			"keys":        m.stats.Keys,
		},
	).Infof("%s migration completed", name)
	return 0
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	var code int
	switch sub {
	case "db":
		code = run(sub, os.Args[2:], (*migrator).migrateDB)
	case "keys":
		code = run(sub, os.Args[2:], (*migrator).migrateKeys)
	case "-h", "--help", "help":
		usage()
		code = 0
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n\n", sub)
		usage()
		code = 2
	}
	os.Exit(code)
}
