package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "filerelay",
	Short: "Relay newly produced files from one remote store to another",
	Long: `filerelay lists a source directory, selects the files modified since the
last successful run, stages them locally, optionally encrypts them and
uploads them to a destination directory. Recipients on the distribution
list are told how each run went.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "filerelay.yml", "configuration file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watermarkCmd)
	rootCmd.AddCommand(keygenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
