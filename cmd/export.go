package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/tagtree/internal/config"
	"github.com/agentic-research/tagtree/internal/export"
	"github.com/agentic-research/tagtree/internal/upload"
)

var (
	serviceName  string
	unified      bool
	noClear      bool
	uploadAfter  bool
	uploadFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export per-tag statistics as gzip-compressed NDJSON",
	Long: `Export loads the collection, rolls card sets up the tag hierarchy and
writes one record per tag path. With --unified every tag is exported to a
single unified_export_<stamp>.ndjson.gz after clearing the exports directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc := export.AllTagsService()
		if !unified {
			var err error
			if svc, err = export.NewService(cfg, serviceName); err != nil {
				return err
			}
		}
		src, err := source()
		if err != nil {
			return err
		}

		sink := osfs.New(cfg.ExportsDir)
		exp := &export.Exporter{
			Service:  svc,
			Source:   src,
			Sink:     sink,
			Level:    cfg.CompressionLevel,
			Username: cfg.Username,
			Log:      logger,
		}

		var sum *export.Summary
		if unified {
			sum, err = exp.RunUnified(ctx, cfg.ClearExportsDir && !noClear)
		} else {
			sum, err = exp.Run(ctx)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sum.String())

		if !uploadAfter {
			return nil
		}
		up, closeFn, err := newUploader(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		res, err := up.Upload(ctx, upload.Artifact{FS: sink, Name: sum.Path, Type: uploadFormat})
		if err != nil {
			return fmt.Errorf("upload %s: %w", sum.Path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s -> %s\n", res.Name, res.Key)
		return nil
	},
}

// newUploader builds the transport selected by upload.mode.
func newUploader(ctx context.Context) (upload.Uploader, func(), error) {
	switch cfg.Upload.Mode {
	case config.UploadPresigned:
		return &upload.Presigned{
			APIURL: cfg.Upload.APIURL,
			Tokens: upload.StaticToken(cfg.Upload.Token),
			Client: &http.Client{Timeout: cfg.Upload.Timeout},
			Log:    logger,
		}, func() {}, nil
	case config.UploadGCS:
		g, err := upload.NewGCS(ctx, cfg.Upload.Bucket, cfg.Upload.Prefix)
		if err != nil {
			return nil, nil, err
		}
		g.Log = logger
		return g, func() { _ = g.Close() }, nil
	default:
		return nil, nil, errors.New("uploads are disabled: set upload.mode, TAGTREE_UPLOAD_URL or TAGTREE_GCS_BUCKET")
	}
}

func init() {
	exportCmd.Flags().StringVarP(&serviceName, "service", "s", config.AllTags, "Export service to run")
	exportCmd.Flags().BoolVar(&unified, "unified", false, "Write a single unified export of every tag")
	exportCmd.Flags().BoolVar(&noClear, "no-clear", false, "Keep existing files when writing a unified export")
	exportCmd.Flags().BoolVar(&uploadAfter, "upload", false, "Upload the artifact after a successful export")
	exportCmd.Flags().StringVar(&uploadFormat, "type", "", "Override the detected upload file type")
	rootCmd.AddCommand(exportCmd)
}
