// Package gcsarchive is the optional, best-effort durable archival of
// uploaded IFC source blobs. Ingestion never depends on it: when
// GCS_BUCKET_NAME is unset, Archiver.Enabled() is false and the upload
// handler proceeds from the local/streamed copy regardless.
package gcsarchive

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/bimatlas/bimatlas/internal/platform/logger"
)

type Archiver struct {
	client *storage.Client
	bucket string
	log    *logger.Logger
}

// New returns an Archiver, or a disabled one (Enabled() == false) if
// GCS_BUCKET_NAME is unset. A failure to construct the underlying storage
// client is logged and also yields a disabled Archiver, never an error —
// archival is always optional.
func New(ctx context.Context, log *logger.Logger) *Archiver {
	bucket := strings.TrimSpace(os.Getenv("GCS_BUCKET_NAME"))
	baseLog := log.With("client", "gcsarchive.Archiver")
	if bucket == "" {
		return &Archiver{log: baseLog}
	}
	client, err := storage.NewClient(ctx, clientOptionsFromEnv()...)
	if err != nil {
		baseLog.Warn("gcsarchive: disabled, storage client init failed", "error", err)
		return &Archiver{log: baseLog}
	}
	return &Archiver{client: client, bucket: bucket, log: baseLog}
}

func (a *Archiver) Enabled() bool { return a != nil && a.client != nil }

// Archive uploads the IFC source blob under key. The upload handler sets
// key to "<branch_id>/<base filename>", so a later upload of the same file
// name to the same branch replaces the earlier object.
func (a *Archiver) Archive(ctx context.Context, key string, r io.Reader) error {
	if !a.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/x-step"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcsarchive: write: %w", err)
	}
	return w.Close()
}

func clientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}
