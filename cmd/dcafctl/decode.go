package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dcaf-go/dcaf/wire"
)

var decodeDiagnostic bool

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode a CBOR encoded DCAF message",
	Long: "Decode a CBOR encoded DCAF message given as hex. By default the message is printed as JSON with the " +
		"numeric keys replaced by their names.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := decode(args[0], decodeDiagnostic)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

// parseHex accepts plain hex, optionally with whitespace, or the h'...'
// notation of CBOR diagnostics
func parseHex(s string) ([]byte, error) {
	s = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "h'"), "'")
	s = strings.Join(strings.Fields(s), "")
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "input is not hex")
	}
	return data, nil
}

func decode(s string, diagnostic bool) (string, error) {
	data, err := parseHex(s)
	if err != nil {
		return "", err
	}
	if diagnostic {
		return wire.Diagnose(data)
	}
	return wire.Pretty(data)
}

func init() {
	decodeCmd.Flags().BoolVarP(&decodeDiagnostic, "diagnostic", "d", false, "print CBOR diagnostic notation")
}
