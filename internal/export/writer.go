package export

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	billy "github.com/go-git/go-billy/v5"

	"github.com/agentic-research/tagtree/api"
)

var errNoSink = errors.New("no export sink")

// Writer serializes records as gzip-compressed NDJSON. Output goes to a
// temporary file that is renamed into place only after the stream is complete,
// so a failed write never leaves a partial artifact behind.
type Writer struct {
	FS    billy.Filesystem
	Level int
}

// Write stores records under name and returns the final path.
func (w *Writer) Write(ctx context.Context, name string, records []api.ExportRecord) (string, error) {
	if w.FS == nil {
		return "", fail("sink", ErrSink, errNoSink)
	}
	level := w.Level
	if level == 0 {
		level = gzip.BestSpeed
	}

	dir := path.Dir(name)
	if err := w.FS.MkdirAll(dir, 0o755); err != nil {
		return "", fail("sink", ErrSink, fmt.Errorf("create %s: %w", dir, err))
	}
	tmp, err := w.FS.TempFile(dir, "."+path.Base(name)+".tmp-")
	if err != nil {
		return "", fail("sink", ErrSink, fmt.Errorf("open temp file: %w", err))
	}
	tmpName := tmp.Name()

	if err := writeStream(ctx, tmp, level, records); err != nil {
		_ = tmp.Close()
		_ = w.FS.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = w.FS.Remove(tmpName)
		return "", fail("sink", ErrSink, fmt.Errorf("close temp file: %w", err))
	}
	if err := w.FS.Rename(tmpName, name); err != nil {
		_ = w.FS.Remove(tmpName)
		return "", fail("sink", ErrSink, fmt.Errorf("finalize %s: %w", name, err))
	}
	return name, nil
}

func writeStream(ctx context.Context, f billy.File, level int, records []api.ExportRecord) error {
	bw := bufio.NewWriterSize(f, 64<<10)
	zw, err := gzip.NewWriterLevel(bw, level)
	if err != nil {
		return fail("sink", ErrSink, err)
	}
	for i := range records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		line, err := json.Marshal(&records[i])
		if err != nil {
			return fail("serialize", ErrSerialization, fmt.Errorf("record %q: %w", records[i].TagName, err))
		}
		line = append(line, '\n')
		if _, err := zw.Write(line); err != nil {
			return fail("sink", ErrSink, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fail("sink", ErrSink, err)
	}
	if err := bw.Flush(); err != nil {
		return fail("sink", ErrSink, err)
	}
	return nil
}
