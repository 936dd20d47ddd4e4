package archive

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"vaultkit/internal/db"
	"vaultkit/internal/logger"
	"vaultkit/pkg/models"
	"vaultkit/pkg/utils"
)

// Uploader copies archived notes to the vault's object-storage destination
// with a worker pool.
type Uploader struct {
	db          *db.DB
	vault       *models.Vault
	minioClient *minio.Client
	numWorkers  int
	batchSize   int
	log         *logger.Logger
}

// UploadResult summarizes an upload run.
type UploadResult struct {
	Uploaded int64
	Size     int64
	Skipped  int64
	Failed   int64
	Duration time.Duration
}

// NewUploader creates an uploader for the vault's configured destination.
func NewUploader(database *db.DB, vault *models.Vault, numWorkers int, log *logger.Logger) (*Uploader, error) {
	if !vault.HasDestination() {
		return nil, fmt.Errorf("vault %s has no object-storage destination configured", vault.Name)
	}
	if numWorkers <= 0 {
		numWorkers = 8
	}

	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	opts := minio.Options{
		Creds:        credentials.NewStaticV4(vault.Destination.AccessKey, vault.Destination.SecretKey, ""),
		Secure:       true,
		Transport:    tr,
		Region:       "auto",
		BucketLookup: minio.BucketLookupAuto,
	}

	minioClient, err := minio.New(vault.Destination.Endpoint, &opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %v", err)
	}

	return &Uploader{
		db:          database,
		vault:       vault,
		minioClient: minioClient,
		numWorkers:  numWorkers,
		batchSize:   100,
		log:         log,
	}, nil
}

// UploadArchived uploads every note in the archived state and marks each
// uploaded or upload_failed. Per-note failures never abort the run.
func (u *Uploader) UploadArchived(ctx context.Context) (*UploadResult, error) {
	notes, err := u.db.GetNotes(u.vault.Name)
	if err != nil {
		return nil, err
	}

	var pending []models.Note
	var totalSize int64
	for _, note := range notes {
		if note.State == models.NoteStateArchived || note.State == models.NoteStateUploadFailed {
			pending = append(pending, note)
			totalSize += note.Size
		}
	}
	if len(pending) == 0 {
		return &UploadResult{}, nil
	}

	fmt.Printf("Uploading %d archived note(s) (%s) to %s/%s\n",
		len(pending), utils.FormatSize(totalSize),
		u.vault.Destination.Endpoint, u.vault.Destination.Bucket)

	start := time.Now()
	result := &UploadResult{}
	bar := pb.New(len(pending))
	bar.Set(pb.Bytes, false)
	bar.Start()
	defer bar.Finish()

	jobs := make(chan models.Note, u.numWorkers)
	type outcome struct {
		path string
		ok   bool
		size int64
		skip bool
	}
	outcomes := make(chan outcome, u.numWorkers)

	var wg sync.WaitGroup
	for i := 0; i < u.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for note := range jobs {
				out := outcome{path: note.Path, size: note.Size}

				fullPath := filepath.Join(u.vault.RootPath, filepath.FromSlash(note.Path))
				if _, err := os.Stat(fullPath); os.IsNotExist(err) {
					u.log.Warn().Str("path", note.Path).Msg("skipping: note no longer exists")
					out.skip = true
					outcomes <- out
					continue
				}

				key := u.vault.Destination.Folder + sanitizeKey(note.Path)
				_, err := u.minioClient.FPutObject(ctx,
					u.vault.Destination.Bucket,
					key,
					fullPath,
					minio.PutObjectOptions{
						ContentType: contentType(note.Path),
						UserMetadata: map[string]string{
							"vault":    u.vault.Name,
							"checksum": note.Checksum,
						},
					})
				if err != nil {
					u.log.Error().Str("path", note.Path).Err(err).Msg("upload failed")
					outcomes <- out
					continue
				}

				out.ok = true
				outcomes <- out
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, note := range pending {
			select {
			case jobs <- note:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var uploaded, failed []string
	flush := func() error {
		if len(uploaded) > 0 {
			if err := u.db.UpdateNoteStateBatch(u.vault.Name, uploaded, models.NoteStateUploaded); err != nil {
				return err
			}
			uploaded = uploaded[:0]
		}
		if len(failed) > 0 {
			if err := u.db.UpdateNoteStateBatch(u.vault.Name, failed, models.NoteStateUploadFailed); err != nil {
				return err
			}
			failed = failed[:0]
		}
		return nil
	}

	for out := range outcomes {
		bar.Increment()
		switch {
		case out.skip:
			result.Skipped++
		case out.ok:
			result.Uploaded++
			result.Size += out.size
			uploaded = append(uploaded, out.path)
		default:
			result.Failed++
			failed = append(failed, out.path)
		}
		if len(uploaded)+len(failed) >= u.batchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}

	result.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// sanitizeKey normalizes a vault path into an object key: forward slashes
// only, no doubled separators, spaces and ampersands replaced so keys stay
// URL-safe.
func sanitizeKey(path string) string {
	key := strings.ReplaceAll(path, "\\", "/")
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	key = strings.ReplaceAll(key, "&", "and")
	key = strings.ReplaceAll(key, " ", "+")
	return key
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return "text/markdown"
	case ".canvas", ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
