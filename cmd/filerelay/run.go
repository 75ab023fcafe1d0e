package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/studio1767/filerelay/internal/config"
	"github.com/studio1767/filerelay/internal/lock"
	"github.com/studio1767/filerelay/internal/logging"
	"github.com/studio1767/filerelay/internal/relay"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Transfer the files produced since the last successful run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		lk, err := lock.Acquire(cfg.Lock.Path)
		if err != nil {
			return err
		}
		defer lk.Release()

		logger, closer, err := logging.Setup(cfg.Logging.Directory, cfg.Program, cfg.Logging.Level, time.Now())
		if err != nil {
			return errors.Wrap(err, "setting up logging")
		}
		defer closer.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r, err := newRelay(cfg, logger)
		if err != nil {
			logger.WithError(err).Error("Fatal error occurred")
			relay.NotifyFailure(ctx, fallbackNotifier(cfg, logger), cfg, logger, err)
			return err
		}

		res := r.Run(ctx)
		printSummary(res)

		if !res.Succeeded() {
			if res.Err != nil {
				return res.Err
			}
			return fmt.Errorf("%d of %d files failed", len(res.Failed()), len(res.Candidates))
		}
		return nil
	},
}

func printSummary(res *relay.RunResult) {
	var bytesUploaded int64
	for _, c := range res.Uploaded() {
		bytesUploaded += c.Entry.Size
	}

	for _, c := range res.Candidates {
		switch c.Outcome {
		case relay.Uploaded:
			fmt.Printf("- uploaded: %s (%s)\n", c.Entry.Name, humanize.Bytes(uint64(c.Entry.Size)))
		case relay.Failed:
			fmt.Printf("-   failed: %s (%s: %s)\n", c.Entry.Name, c.Stage, c.Err)
		default:
			fmt.Printf("-  skipped: %s\n", c.Entry.Name)
		}
	}

	fmt.Println()
	fmt.Printf("Transfer Summary\n")
	fmt.Printf("        state: %s\n", res.State)
	fmt.Printf("       listed: %d\n", res.Listed)
	fmt.Printf("     selected: %d\n", len(res.Candidates))
	fmt.Printf("     uploaded: %d (%s bytes)\n", len(res.Uploaded()), humanize.Comma(bytesUploaded))
	fmt.Printf("       failed: %d\n", len(res.Failed()))
	if res.Advanced {
		fmt.Printf("    watermark: %s\n", res.WatermarkAfter.UTC().Format(time.RFC3339))
	} else if res.WatermarkKnown {
		fmt.Printf("    watermark: %s (unchanged)\n", res.WatermarkBefore.UTC().Format(time.RFC3339))
	} else {
		fmt.Printf("    watermark: unknown\n")
	}
	fmt.Printf("     notified: %d\n", res.Notified)
	fmt.Printf("         took: %s\n", res.Finished.Sub(res.Started).Round(time.Millisecond))
	fmt.Println()
}
