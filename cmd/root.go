// Package cmd wires up the command line interface.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rightmic/rightmic-go/cmd/capture"
	"github.com/rightmic/rightmic-go/cmd/devices"
	"github.com/rightmic/rightmic-go/cmd/tap"
	"github.com/rightmic/rightmic-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rightmic",
		Short: "RightMic virtual microphone companion CLI",
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		capture.Command(settings),
		tap.Command(settings),
		devices.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Capture.ShmPath, "shm-path", viper.GetString("capture.shmpath"), "Path of the shared memory audio file")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		cobra.CheckErr(err)
	}
}
