package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileBackend writes objects to the local filesystem. Used for dry runs.
type FileBackend struct{}

// Put writes body to loc.Key, creating parent directories.
func (FileBackend) Put(_ context.Context, loc Location, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(loc.Key), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(loc.Key)
	if err != nil {
		return fmt.Errorf("create file %q: %w", loc.Key, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return fmt.Errorf("write file %q: %w", loc.Key, err)
	}
	return f.Close()
}

func contentType(loc Location) string {
	if strings.HasSuffix(loc.Key, ".parquet") {
		return "application/vnd.apache.parquet"
	}
	return "application/octet-stream"
}
