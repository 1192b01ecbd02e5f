package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/agentic-research/tagtree/internal/logging"
)

// Presigned uploads through a two-step flow: request a presigned URL from the
// API, then PUT the file to it.
type Presigned struct {
	APIURL string
	Tokens TokenProvider
	Client *http.Client
	Log    *logging.Logger

	// RequestTimeout bounds the presigned-URL request; the PUT is bounded by ctx.
	RequestTimeout time.Duration
}

type presignRequest struct {
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type"`
}

type presignResponse struct {
	PresignedURL string `json:"presigned_url"`
	S3Key        string `json:"s3_key"`
}

// Upload sends one artifact.
func (p *Presigned) Upload(ctx context.Context, a Artifact) (*Result, error) {
	log := p.log().With("file", a.Name)
	if p.Tokens == nil {
		return nil, ErrNoToken
	}
	token, err := p.Tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	fi, err := a.FS.Stat(a.Name)
	if err != nil {
		return nil, fmt.Errorf("stat artifact: %w", err)
	}
	fileType := a.FileType()
	log.Info("Requesting presigned URL", "file_type", fileType, "size", fi.Size(), "token", token)

	presign, err := p.presign(ctx, token, presignRequest{
		FileName: path.Base(a.Name),
		FileSize: fi.Size(),
		FileType: fileType,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("Got presigned URL", "key", presign.S3Key, "presigned_url", presign.PresignedURL)

	start := time.Now()
	if err := p.put(ctx, a, fi.Size(), presign.PresignedURL); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	log.Info("Upload complete", "key", presign.S3Key, "elapsed", elapsed)

	return &Result{Name: a.Name, Key: presign.S3Key, Size: fi.Size(), Elapsed: elapsed}, nil
}

func (p *Presigned) presign(ctx context.Context, token string, body presignRequest) (*presignResponse, error) {
	timeout := p.RequestTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(p.APIURL, "/") + "/presigned-upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("presign request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: "presign", Code: resp.StatusCode, Body: readSnippet(resp.Body)}
	}
	var out presignResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode presign response: %w", err)
	}
	if out.PresignedURL == "" {
		return nil, fmt.Errorf("presign response has no presigned_url")
	}
	return &out, nil
}

func (p *Presigned) put(ctx context.Context, a Artifact, size int64, url string) error {
	f, err := a.FS.Open(a.Name)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, f)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/gzip")

	resp, err := p.client().Do(req)
	if err != nil {
		return fmt.Errorf("put artifact: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Op: "put", Code: resp.StatusCode, Body: readSnippet(resp.Body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p *Presigned) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}

func (p *Presigned) log() *logging.Logger {
	if p.Log != nil {
		return p.Log
	}
	return logging.Nop()
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
