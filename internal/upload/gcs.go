package upload

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/agentic-research/tagtree/internal/logging"
)

// GCS writes artifacts to a Cloud Storage bucket under <prefix>/<file type>/<name>.
type GCS struct {
	Client *storage.Client
	Bucket string
	Prefix string
	Log    *logging.Logger
}

// NewGCS opens a storage client with read-write scope.
func NewGCS(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCS, error) {
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCS{Client: client, Bucket: bucket, Prefix: prefix}, nil
}

// Close releases the storage client.
func (g *GCS) Close() error { return g.Client.Close() }

// ObjectKey returns the object name for an artifact.
func (g *GCS) ObjectKey(a Artifact) string {
	return path.Join(g.Prefix, a.FileType(), path.Base(a.Name))
}

// Upload sends one artifact.
func (g *GCS) Upload(ctx context.Context, a Artifact) (*Result, error) {
	f, err := a.FS.Open(a.Name)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	key := g.ObjectKey(a)
	start := time.Now()

	n, err := writeObject(ctx, func(ctx context.Context) io.WriteCloser {
		w := g.Client.Bucket(g.Bucket).Object(key).NewWriter(ctx)
		w.ContentType = "application/gzip"
		w.Metadata = map[string]string{"file_type": a.FileType()}
		return w
	}, f)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	if g.Log != nil {
		g.Log.Info("Upload complete", "bucket", g.Bucket, "key", key, "bytes", n, "elapsed", elapsed)
	}
	return &Result{Name: a.Name, Key: key, Size: n, Elapsed: elapsed}, nil
}

// writeObject streams src into the writer returned by open. A failed copy
// cancels the writer's context before closing it, which aborts the upload
// instead of committing a truncated object.
func writeObject(ctx context.Context, open func(context.Context) io.WriteCloser, src io.Reader) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := open(ctx)
	n, err := io.Copy(w, src)
	if err != nil {
		cancel()
		_ = w.Close()
		return n, fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return n, nil
}
