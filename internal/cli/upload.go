package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"docsflow/internal/config"
	"docsflow/internal/model"
	"docsflow/internal/service"
	"docsflow/internal/storage"
)

const progressInterval = 250 * time.Millisecond

type metadataFlags struct {
	title      string
	content    string
	docType    string
	tags       string
	department int64
}

func (f *metadataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Title for every file (default: file name)")
	cmd.Flags().StringVar(&f.content, "content", "", "Body text for every file")
	cmd.Flags().StringVar(&f.docType, "type", "", "Document type (default: content type)")
	cmd.Flags().StringVar(&f.tags, "tags", "", "Comma separated tags")
	cmd.Flags().Int64Var(&f.department, "department", 0, "Department id (default from config)")
}

func (f *metadataFlags) metadata() model.UploadMetadata {
	return model.UploadMetadata{
		Title:        f.title,
		Content:      f.content,
		Type:         f.docType,
		Tags:         splitTags(f.tags),
		DepartmentID: f.department,
	}
}

func NewUploadCommand(a *app) *cobra.Command {
	var f metadataFlags
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload files, creating one document per file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]model.File, 0, len(args))
			for _, p := range args {
				file, err := service.LocalFile(p)
				if err != nil {
					return err
				}
				files = append(files, file)
			}

			stop := a.watchProgress()
			a.uploads.UploadMany(cmd.Context(), files, f.metadata())
			stop()

			return a.reportUploads(a.uploads.Records())
		},
	}
	f.register(cmd)
	return cmd
}

// watchProgress prints progress changes to stderr until the returned func
// is called.
func (a *app) watchProgress() func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		last := map[string]int{}
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				for _, rec := range a.uploads.Records() {
					if rec.Status != service.UploadUploading || last[rec.ID] == rec.Progress {
						continue
					}
					last[rec.ID] = rec.Progress
					fmt.Fprintf(a.errOut, "  %-40s %3d%%\n", rec.FileName, rec.Progress)
				}
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

// reportUploads prints one line per record and a summary. It fails when any
// record failed.
func (a *app) reportUploads(records []service.UploadRecord) error {
	printUploadRecords(a.out, records)
	failures := 0
	for _, rec := range records {
		if rec.Status == service.UploadError {
			failures++
		}
	}
	fmt.Fprintf(a.out, "%d uploaded, %d failed\n", len(records)-failures, failures)
	if failures > 0 {
		return fmt.Errorf("%d of %d uploads failed", failures, len(records))
	}
	return nil
}

func printUploadRecords(w io.Writer, records []service.UploadRecord) {
	for _, rec := range records {
		switch rec.Status {
		case service.UploadSuccess:
			id := int64(0)
			if rec.Document != nil {
				id = rec.Document.ID
			}
			fmt.Fprintf(w, "ok    %s -> document #%d\n", rec.FileName, id)
		case service.UploadError:
			fmt.Fprintf(w, "fail  %s: %s\n", rec.FileName, rec.Error)
		default:
			fmt.Fprintf(w, "%-5s %s\n", rec.Status, rec.FileName)
		}
	}
}

// newStorage is replaced in tests.
var newStorage = func(ctx context.Context, c config.MinIOConfig) (storage.Storage, error) {
	return storage.NewMinIO(ctx, c)
}

func NewImportCommand(a *app) *cobra.Command {
	var (
		bucket string
		prefix string
		f      metadataFlags
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upload every object under a bucket prefix",
		Long: `Import lists objects in an S3-compatible bucket (MINIO_* settings) and uploads each
one as a new document. Failed objects are reported and make the command exit non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mc := a.cfg.MinIO
			if bucket != "" {
				mc.Bucket = bucket
			}
			store, err := newStorage(cmd.Context(), mc)
			if err != nil {
				return err
			}

			stop := a.watchProgress()
			res, err := service.NewImporter(store, a.uploads).Import(cmd.Context(), prefix, f.metadata())
			stop()
			if err != nil {
				return err
			}
			if res.Listed == 0 {
				fmt.Fprintf(a.out, "No objects under %q\n", prefix)
				return nil
			}
			return a.reportUploads(a.uploads.Records())
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "Bucket name (default MINIO_BUCKET)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Only import keys with this prefix")
	f.register(cmd)
	return cmd
}
