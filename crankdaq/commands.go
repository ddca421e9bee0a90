package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/starterbench/crankdaq/pkg/catalog"
	"github.com/starterbench/crankdaq/pkg/config"
	"github.com/starterbench/crankdaq/pkg/rig"
)

func portsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List available serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := rig.Ports()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				pterm.Warning.Println("No serial ports found")
				return nil
			}
			for _, p := range ports {
				pterm.Info.Println(p.Name)
			}
			return nil
		},
	}
}

func episodesCmd() *cobra.Command {
	var configFlag string

	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "List recorded episodes from the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFlag)
			if err != nil {
				return err
			}

			cat, err := catalog.Open(filepath.Join(cfg.Storage.Dir, cfg.Storage.CatalogFile))
			if err != nil {
				return err
			}
			defer cat.Close()

			entries, err := cat.List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				pterm.Info.Println("No episodes recorded yet")
				return nil
			}

			rows := pterm.TableData{
				{"File", "Duration", "Records", "Bytes", "Overflows", "Bus faults", "Recorded"},
			}
			for _, e := range entries {
				duration := time.Duration(e.EndUsec-e.StartUsec) * time.Microsecond
				rows = append(rows, []string{
					filepath.Base(e.File),
					duration.String(),
					fmt.Sprint(e.Records),
					fmt.Sprint(e.Bytes),
					fmt.Sprint(e.Overflows),
					fmt.Sprint(e.BusFaults),
					e.RecordedAt.Format(time.DateTime),
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	}

	cmd.Flags().StringVar(&configFlag, "config", "config.yaml", "configuration file path")
	return cmd
}

func configCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "config [file]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.yaml"
			if len(args) == 1 {
				path = args[0]
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}

			if err := config.Default().Save(path); err != nil {
				return err
			}
			pterm.Success.Printf("Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
