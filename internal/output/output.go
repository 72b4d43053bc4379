// ABOUTME: Completion-marker stores for per-pair CSV files.
// ABOUTME: A pair is done once its file exists; writes are atomic on disk.

package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/2389/partnergen/internal/contact"
	"github.com/2389/partnergen/internal/normalize"
)

// FileName is the per-pair output file name.
const FileName = "contacts.csv"

// CompletionStore records finished pairs. Exists reports whether a pair's file
// is present; Write replaces it with the given records.
type CompletionStore interface {
	Exists(path string) bool
	Write(path string, records []contact.Record) error
}

// PairPath returns <root>/<sanitized city>/<type>/contacts.csv.
func PairPath(root, cityID string, t contact.PartnerType) string {
	return filepath.Join(root, normalize.Sanitize(cityID), string(t), FileName)
}

// EncodeCSV writes the header and one row per record.
func EncodeCSV(w io.Writer, records []contact.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(contact.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.Row()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileStore keeps completion markers on the local filesystem.
type FileStore struct{}

// Exists reports whether path is an existing file.
func (FileStore) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Write creates parent directories and replaces path through a temp file, so
// an interrupted write never leaves a file behind at path.
func (FileStore) Write(path string, records []contact.Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := EncodeCSV(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// MemStore is an in-memory CompletionStore.
type MemStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string][]byte)}
}

func (m *MemStore) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

func (m *MemStore) Write(path string, records []contact.Record) error {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, records); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = buf.Bytes()
	return nil
}

// Put stores raw content at path, marking it complete.
func (m *MemStore) Put(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = append([]byte(nil), content...)
}

// Get returns the content stored at path.
func (m *MemStore) Get(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[filepath.Clean(path)]
	return b, ok
}

// Paths lists stored paths in sorted order.
func (m *MemStore) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
