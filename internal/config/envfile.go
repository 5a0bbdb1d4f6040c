package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFile is a line-oriented KEY=value credential store on disk.
type EnvFile struct {
	Path string
}

// NewEnvFile returns a store backed by the file at path. The file does not
// need to exist yet.
func NewEnvFile(path string) *EnvFile {
	return &EnvFile{Path: path}
}

// Values parses the file. A missing file reads as empty.
func (f *EnvFile) Values() (map[string]string, error) {
	values, err := godotenv.Read(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read env file %q: %w", f.Path, err)
	}
	return values, nil
}

// Source parses the file into a lookup source.
func (f *EnvFile) Source() (MapSource, error) {
	values, err := f.Values()
	if err != nil {
		return nil, err
	}
	return MapSource(values), nil
}

// Set rewrites every line assigning key to exactly "key=value", or appends
// that line when the key is absent. All other lines are kept byte for byte.
// The file is created with mode 0600 when it does not exist.
func (f *EnvFile) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("set env key: empty key")
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("set env key %s: value contains a line break", key)
	}

	mode := fs.FileMode(0o600)
	content, err := os.ReadFile(f.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		content = nil
	case err != nil:
		return fmt.Errorf("read env file %q: %w", f.Path, err)
	default:
		if info, statErr := os.Stat(f.Path); statErr == nil {
			mode = info.Mode().Perm()
		}
	}

	updated := rewriteKey(string(content), key, value)

	if err := writeAtomic(f.Path, []byte(updated), mode); err != nil {
		return fmt.Errorf("write env file %q: %w", f.Path, err)
	}
	return nil
}

func rewriteKey(content, key, value string) string {
	assignment := key + "=" + value

	var b strings.Builder
	found := false
	for _, line := range strings.SplitAfter(content, "\n") {
		if line == "" {
			continue
		}
		if lineKey(line) == key {
			b.WriteString(assignment)
			b.WriteString("\n")
			found = true
			continue
		}
		b.WriteString(line)
	}

	if !found {
		out := b.String()
		if out != "" && !strings.HasSuffix(out, "\n") {
			b.WriteString("\n")
		}
		b.WriteString(assignment)
		b.WriteString("\n")
	}
	return b.String()
}

// lineKey extracts the key of an assignment line, or "" for comments and
// anything that does not look like KEY=value.
func lineKey(line string) string {
	s := strings.TrimSpace(line)
	if s == "" || strings.HasPrefix(s, "#") {
		return ""
	}
	s = strings.TrimPrefix(s, "export ")
	k, _, ok := strings.Cut(s, "=")
	if !ok {
		return ""
	}
	return strings.TrimSpace(k)
}

func writeAtomic(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
