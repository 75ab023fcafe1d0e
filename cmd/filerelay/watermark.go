package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/studio1767/filerelay/internal/config"
	"github.com/studio1767/filerelay/internal/lock"
	"github.com/studio1767/filerelay/internal/watermark"
)

var watermarkCmd = &cobra.Command{
	Use:   "watermark",
	Short: "Inspect or initialise the last successful run time",
}

var watermarkShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored watermark",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		stamp, known := watermark.New(cfg.Watermark.Path, log.StandardLogger()).Read()
		if !known {
			fmt.Printf("unknown (%s)\n", cfg.Watermark.Path)
			return nil
		}
		fmt.Println(stamp.UTC().Format(time.RFC3339Nano))
		return nil
	},
}

var watermarkSetCmd = &cobra.Command{
	Use:   "set <RFC3339 time|now>",
	Short: "Store a new watermark; files modified after it are eligible",
	Long: `Store a new watermark. This is how a fresh installation, or one whose
watermark file was lost or damaged, is told where to resume. Files modified
strictly after the given time are transferred by the next run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		stamp, err := parseStamp(args[0], time.Now())
		if err != nil {
			return err
		}

		lk, err := lock.Acquire(cfg.Lock.Path)
		if err != nil {
			return err
		}
		defer lk.Release()

		if err := watermark.New(cfg.Watermark.Path, log.StandardLogger()).Write(stamp); err != nil {
			return err
		}
		fmt.Printf("watermark set to %s\n", stamp.UTC().Format(time.RFC3339Nano))
		return nil
	},
}

func parseStamp(arg string, now time.Time) (time.Time, error) {
	if arg == "now" {
		return now, nil
	}
	stamp, err := time.Parse(time.RFC3339Nano, arg)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid watermark '%s'", arg)
	}
	return stamp, nil
}

func init() {
	watermarkCmd.AddCommand(watermarkShowCmd)
	watermarkCmd.AddCommand(watermarkSetCmd)
}
