package vectorstore

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

// IndexFileName is the name of the snapshot file in the store directory.
const IndexFileName = "index.json"

// MemoryIndex keeps all entries in memory and can be persisted as JSON.
type MemoryIndex struct {
	lock    sync.RWMutex
	entries []Entry
	hashes  map[uint64]bool
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex returns an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		hashes: make(map[uint64]bool),
	}
}

// Name returns the index name.
func (m *MemoryIndex) Name() string {
	return "memory"
}

// Add stores the documents.
func (m *MemoryIndex) Add(_ context.Context, docs []Document, vectors [][]float32) error {
	if err := checkAdd(docs, vectors); err != nil {
		return err
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	for i := range docs {
		m.entries = append(m.entries, Entry{Document: docs[i], Vector: vectors[i]})
		m.hashes[docs[i].Hash()] = true
	}
	return nil
}

// Search returns the k most similar documents.
func (m *MemoryIndex) Search(_ context.Context, vector []float32, k int) ([]Match, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return rank(m.entries, vector, k)
}

// Len returns the number of documents.
func (m *MemoryIndex) Len(_ context.Context) (int, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.entries), nil
}

// Contains reports if the content hash is indexed.
func (m *MemoryIndex) Contains(_ context.Context, hash uint64) (bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.hashes[hash], nil
}

// Save writes the JSON snapshot of the index.
func (m *MemoryIndex) Save(w io.Writer) error {
	m.lock.RLock()
	defer m.lock.RUnlock()

	entries := m.entries
	if entries == nil {
		entries = []Entry{}
	}
	return errors.WithStack(json.NewEncoder(w).Encode(entries))
}

// Load replaces the index content with the JSON snapshot.
func (m *MemoryIndex) Load(r io.Reader) error {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return errors.Wrap(err, "failed to decode index")
	}

	hashes := make(map[uint64]bool, len(entries))
	for i := range entries {
		hashes[entries[i].Document.Hash()] = true
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.entries = entries
	m.hashes = hashes
	return nil
}

// SaveDir writes the snapshot to IndexFileName in dir, creating dir if needed.
func (m *MemoryIndex) SaveDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create folder: %s", dir)
	}

	name := filepath.Join(dir, IndexFileName)
	tmp := name + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "failed to create file: %s", tmp)
	}
	if err = m.Save(f); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Rename(tmp, name))
}

// LoadDir reads the snapshot from dir. A missing snapshot leaves the index empty.
func (m *MemoryIndex) LoadDir(dir string) error {
	name := filepath.Join(dir, IndexFileName)
	f, err := os.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			logger.KV(xlog.DEBUG, "reason", "no_index", "path", name)
			return nil
		}
		return errors.Wrapf(err, "failed to open index: %s", name)
	}
	defer f.Close()
	return m.Load(f)
}
