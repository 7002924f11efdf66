package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ragcore/src/core/document"
	"ragcore/src/core/library"
	"ragcore/src/fsutil"
)

var ingestDir string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Bulk-ingest every document under a directory",
	Long: `The ingest command walks a directory tree and ingests every regular
file into the document library. Files in unsupported formats are reported
and skipped.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVarP(&ingestDir, "dir", "d", ".", "directory to ingest")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	deps, err := buildCoreDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.closeDB()

	fs := fsutil.NewLocalFileStore()
	paths, err := fs.ListFiles(ingestDir)
	if err != nil {
		return fmt.Errorf("failed to list files under %s: %w", ingestDir, err)
	}
	if len(paths) == 0 {
		fmt.Printf("no files found under %s\n", ingestDir)
		return nil
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("ingesting"),
		progressbar.OptionShowCount(),
	)

	var ingested, skipped, failed int
	for _, path := range paths {
		payload, err := fs.ReadFile(path)
		if err != nil {
			fmt.Printf("\n%s: %v\n", path, err)
			failed++
			bar.Add(1)
			continue
		}

		_, err = deps.library.Ingest(ctx, library.IngestInput{
			Payload:  payload,
			Filename: filepath.Base(path),
		})
		switch {
		case err == nil:
			ingested++
		case errors.Is(err, document.ErrUnsupportedFormat), errors.Is(err, document.ErrEmptyContent):
			skipped++
		default:
			fmt.Printf("\n%s: %v\n", path, err)
			failed++
		}
		bar.Add(1)
	}
	fmt.Printf("\ningested %d, skipped %d, failed %d of %d files\n", ingested, skipped, failed, len(paths))

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to ingest", failed, len(paths))
	}
	return nil
}
