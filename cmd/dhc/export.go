package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jiaofangliang/datahub/internal/config"
	"github.com/jiaofangliang/datahub/internal/store/postgres"
	dhsync "github.com/jiaofangliang/datahub/internal/sync"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export datasets and compliance annotations as JSONL",
	Long: `Export every dataset with its schema and compliance annotations as JSONL,
reading directly from the database named by DHC_DATABASE_URL.

With --sync the export is written once to the destinations configured by the
DHC_SYNC_* variables instead of stdout.`,
	GroupID:           "system",
	Args:              cobra.NoArgs,
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath, _ := cmd.Flags().GetString("output")
		syncNow, _ := cmd.Flags().GetBool("sync")
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		tables, err := loadTables(cfg.RegistryFile)
		if err != nil {
			return err
		}
		st, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		if syncNow {
			dests, err := syncDestinations(ctx, cfg, logger)
			if err != nil {
				return err
			}
			if len(dests) == 0 {
				return fmt.Errorf("no sync destinations configured (set DHC_SYNC_S3_BUCKET or DHC_SYNC_GIT_REPO)")
			}
			res := dhsync.NewScheduler(st, dests, cfg.SyncInterval, tables.SeverityOrder(), logger).SyncOnce(ctx)
			if res.Bytes == 0 {
				return fmt.Errorf("export failed")
			}
			if res.Failed > 0 {
				return fmt.Errorf("%d of %d destinations failed", res.Failed, len(dests))
			}
			return nil
		}

		return writeOutput(outPath, func(w io.Writer) error {
			return dhsync.ExportJSONL(ctx, st, w, tables.SeverityOrder()...)
		})
	},
}

var openOutput = func(path string) (io.WriteCloser, error) { return os.Create(path) }

// writeOutput runs write against stdout, or against the file at path when one
// is given. The file's close error is returned when write succeeds.
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := openOutput(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	exportCmd.Flags().Bool("sync", false, "write once to the configured sync destinations")
}
