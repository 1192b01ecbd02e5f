package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/tagtree/internal/upload"
)

var (
	uploadType     string
	uploadParallel int
)

var uploadCmd = &cobra.Command{
	Use:   "upload [artifact...]",
	Short: "Upload export artifacts from the exports directory",
	Long: `Upload sends the named artifacts, or every *.ndjson.gz in the exports
directory when none are named. Failures are reported and not retried.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		fs := osfs.New(cfg.ExportsDir)

		names := args
		if len(names) == 0 {
			entries, err := fs.ReadDir("/")
			if err != nil {
				return fmt.Errorf("list %s: %w", cfg.ExportsDir, err)
			}
			for _, fi := range entries {
				if fi.Mode().IsRegular() && strings.HasSuffix(fi.Name(), ".ndjson.gz") {
					names = append(names, fi.Name())
				}
			}
			sort.Strings(names)
		}
		if len(names) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "nothing to upload in %s\n", cfg.ExportsDir)
			return nil
		}

		up, closeFn, err := newUploader(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		artifacts := make([]upload.Artifact, len(names))
		for i, n := range names {
			artifacts[i] = upload.Artifact{FS: fs, Name: n, Type: uploadType}
		}
		results, err := upload.UploadAll(ctx, up, artifacts, uploadParallel)
		for _, r := range results {
			if r != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s -> %s (%d bytes)\n", r.Name, r.Key, r.Size)
			}
		}
		return err
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadType, "type", "", "Override the detected file type")
	uploadCmd.Flags().IntVarP(&uploadParallel, "parallel", "p", 4, "Maximum concurrent uploads")
	rootCmd.AddCommand(uploadCmd)
}
