// Package upload ships finished export artifacts to remote storage. Uploads run
// strictly after an export completes and are never retried here.
package upload

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"
)

// File types understood by the ingestion backend.
const (
	TypeAllTags = "all_tags"
	TypeUnified = "unified"
	TypeDeck    = "deck"
	TypeTag     = "tag"
)

// ErrNoToken is returned when no bearer token is available.
var ErrNoToken = errors.New("no valid token available")

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Code, e.Body)
}

// Artifact is one file to upload.
type Artifact struct {
	FS   billy.Filesystem
	Name string
	// Type overrides DetectFileType when set.
	Type string
}

// FileType returns the explicit type or the one detected from the name.
func (a Artifact) FileType() string {
	if a.Type != "" {
		return a.Type
	}
	return DetectFileType(a.Name)
}

// Result describes a completed upload.
type Result struct {
	Name    string
	Key     string
	Size    int64
	Elapsed time.Duration
}

// Uploader sends one artifact.
type Uploader interface {
	Upload(ctx context.Context, a Artifact) (*Result, error)
}

// TokenProvider supplies the bearer token for authenticated uploads.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return "", ErrNoToken
	}
	return string(t), nil
}

// DetectFileType derives the backend file type from an artifact name.
func DetectFileType(name string) string {
	base := path.Base(name)
	switch {
	case strings.Contains(base, "all_tags_export"):
		return TypeAllTags
	case strings.Contains(base, "unified_export"):
		return TypeUnified
	case strings.Contains(base, "deck_data"):
		return TypeDeck
	default:
		return TypeTag
	}
}

// UploadAll uploads artifacts with at most limit in flight. One failure does
// not stop the others; results keep the input order with nil for failures,
// and the returned error joins every failure.
func UploadAll(ctx context.Context, up Uploader, artifacts []Artifact, limit int) ([]*Result, error) {
	if limit <= 0 {
		limit = 4
	}
	results := make([]*Result, len(artifacts))
	errs := make([]error, len(artifacts))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, a := range artifacts {
		g.Go(func() error {
			res, err := up.Upload(ctx, a)
			if err != nil {
				errs[i] = fmt.Errorf("upload %s: %w", a.Name, err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}
