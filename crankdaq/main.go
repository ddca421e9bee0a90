package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crankdaq",
		Short: "Engine-starter test rig data acquisition logger",
		Long: `crankdaq samples the starter test rig's digital, analog, and flywheel
counter signals at a fixed period while the trigger is high, and writes each
recording episode to a sequentially numbered file.`,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(portsCmd())
	rootCmd.AddCommand(episodesCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
