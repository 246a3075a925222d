// Package fs provides file-based sinks for resources.
package fs

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/fwojciec/pageflow"
)

// Stdout is the path that selects standard output.
const Stdout = "-"

var _ pageflow.ResourceWriter = (*JSONWriter)(nil)

// JSONWriter writes resources as an indented JSON array.
//
// Files are written to a temporary sibling and renamed into place, so an
// existing file is either fully replaced or left untouched.
type JSONWriter struct {
	path   string
	stdout io.Writer
}

// NewJSONWriter returns a JSONWriter targeting path, or standard output
// when path is Stdout.
func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{path: path, stdout: os.Stdout}
}

// NewStreamWriter returns a JSONWriter that writes to w.
func NewStreamWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{path: Stdout, stdout: w}
}

// WriteResources encodes resources. A nil slice is written as [].
func (w *JSONWriter) WriteResources(ctx context.Context, resources []pageflow.Resource) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if resources == nil {
		resources = []pageflow.Resource{}
	}

	if w.path == Stdout || w.path == "" {
		return encode(w.stdout, resources)
	}
	return w.writeFile(resources)
}

func (w *JSONWriter) writeFile(resources []pageflow.Resource) (err error) {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := encode(tmp, resources); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), w.path)
}

func encode(w io.Writer, resources []pageflow.Resource) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(resources)
}
