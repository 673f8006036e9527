package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kode4food/waypost/internal/archive"
	"github.com/kode4food/waypost/pkg/catalog"

	_ "gocloud.dev/blob/fileblob"
)

var (
	archiveBucket string
	archivePrefix string
	archivePrune  bool
)

var ErrBucketURLRequired = errors.New(
	"archive bucket URL required (--bucket or WAYPOST_ARCHIVE_BUCKET)")

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Upload the session's log to blob storage",
	Long: `Replay the session and upload a self-contained archive document
to the configured bucket. Supported bucket URLs include s3://, gs://,
azblob://, and file:// for local directories.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket := cfg.ArchiveBucket
		if archiveBucket != "" {
			bucket = archiveBucket
		}
		if bucket == "" {
			return ErrBucketURLRequired
		}
		prefix := cfg.ArchivePrefix
		if cmd.Flags().Changed("prefix") {
			prefix = archivePrefix
		}

		ctx := cmd.Context()
		arch, err := archive.New(ctx, bucket, prefix,
			archive.WithRegistry(catalog.Default()),
			archive.WithPrune(archivePrune))
		if err != nil {
			return err
		}
		defer func() { _ = arch.Close() }()

		key, err := arch.ArchiveSession(ctx, newStore(), cfg.Session)
		if err != nil {
			return err
		}

		if jsonOutput {
			outputJSON(map[string]any{
				"session_id": cfg.Session,
				"bucket":     bucket,
				"key":        key,
				"pruned":     archivePrune,
			})
			return nil
		}
		fmt.Printf("Archived session %s to %s\n", cfg.Session, key)
		if archivePrune {
			fmt.Printf("Removed local log %s\n",
				newStore().SessionPath(cfg.Session))
		}
		return nil
	},
}

func init() {
	archiveCmd.Flags().StringVar(&archiveBucket, "bucket", "",
		"Bucket URL (default: $WAYPOST_ARCHIVE_BUCKET)")
	archiveCmd.Flags().StringVar(&archivePrefix, "prefix", "",
		"Key prefix inside the bucket (default: $WAYPOST_ARCHIVE_PREFIX)")
	archiveCmd.Flags().BoolVar(&archivePrune, "prune", false,
		"Remove the local session log after a successful upload")
	rootCmd.AddCommand(archiveCmd)
}
