package main

import (
	"context"
	"fmt"
	"time"

	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/studio1767/filerelay/internal/config"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show which source files the next run would transfer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		logger := log.New()
		logger.SetLevel(log.WarnLevel)

		r, err := newRelay(cfg, logger)
		if err != nil {
			return err
		}

		pv, err := r.Preview(context.Background())
		if err != nil {
			return err
		}

		selected := make(map[string]bool)
		for _, entry := range pv.Selected {
			selected[entry.Name] = true
		}

		for _, entry := range pv.Listed {
			mark := " "
			if selected[entry.Name] {
				mark = "*"
			}
			size := "-"
			if entry.HasSize {
				size = humanize.Bytes(uint64(entry.Size))
			}
			fmt.Printf("%s %-40s %10s  %s\n", mark, entry.Name, size, entry.ModTime.UTC().Format(time.RFC3339))
		}

		fmt.Println()
		if pv.Known {
			fmt.Printf("watermark: %s\n", pv.Watermark.UTC().Format(time.RFC3339Nano))
		} else {
			fmt.Printf("watermark: unknown, nothing will be transferred\n")
		}
		fmt.Printf("   listed: %d\n", len(pv.Listed))
		fmt.Printf(" selected: %d\n", len(pv.Selected))

		return nil
	},
}
