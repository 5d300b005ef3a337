// Package devices implements the devices subcommand: list the available
// audio capture sources.
package devices

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gen2brain/malgo"
	"github.com/spf13/cobra"

	"github.com/rightmic/rightmic-go/internal/conf"
)

// Command creates the devices command.
func Command(_ *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		RunE: func(_ *cobra.Command, _ []string) error {
			return listDevices()
		},
	}
}

func listDevices() error {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize audio context: %w", err)
	}
	defer ctx.Uninit() //nolint:errcheck

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return fmt.Errorf("failed to get devices: %w", err)
	}

	fmt.Println("Available capture sources:")
	for i := range infos {
		name := infos[i].Name()
		id, err := hexToASCII(infos[i].ID.String())
		if err != nil {
			id = infos[i].ID.String()
		}
		marker := ""
		if infos[i].IsDefault == 1 {
			marker = " (default)"
		}
		fmt.Printf("  %d: %s, %s%s\n", i, name, id, marker)
	}

	return nil
}

// hexToASCII converts a hexadecimal string to an ASCII string.
func hexToASCII(hexStr string) (string, error) {
	bytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(bytes), "\x00"), nil
}
