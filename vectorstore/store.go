package vectorstore

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/academix/pkg/llms"
	"github.com/effective-security/academix/pkg/metricskey"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

// DefaultBatchSize is the number of chunks embedded per request.
const DefaultBatchSize = 64

// Store indexes documents by their embeddings.
type Store struct {
	embedder  llms.Embedder
	index     Index
	splitter  *Splitter
	batchSize int
	dir       string
}

// Option configures the Store.
type Option func(*Store)

// WithSplitter sets the chunk splitter.
func WithSplitter(sp *Splitter) Option {
	return func(s *Store) {
		s.splitter = sp
	}
}

// WithBatchSize sets the number of chunks per embedding request.
func WithBatchSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithDir sets the folder used by Save and Load for the memory index.
func WithDir(dir string) Option {
	return func(s *Store) {
		s.dir = dir
	}
}

// New returns a Store.
func New(embedder llms.Embedder, index Index, opts ...Option) *Store {
	s := &Store{
		embedder:  embedder,
		index:     index,
		splitter:  NewSplitter(),
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index returns the underlying index.
func (s *Store) Index() Index {
	return s.index
}

// Len returns the number of indexed chunks.
func (s *Store) Len(ctx context.Context) (int, error) {
	return s.index.Len(ctx)
}

// InsertPDF loads the PDF, splits its pages and indexes the new chunks.
// It returns the number of chunks added.
func (s *Store) InsertPDF(ctx context.Context, path string) (int, error) {
	docs, err := LoadPDF(path)
	if err != nil {
		return 0, err
	}
	n, err := s.InsertDocuments(ctx, docs)
	if err != nil {
		return n, errors.WithMessagef(err, "failed to insert %s", path)
	}
	logger.ContextKV(ctx, xlog.INFO, "status", "inserted", "path", path, "pages", len(docs), "chunks", n)
	return n, nil
}

// InsertDocuments splits the documents and indexes the chunks that are not
// already stored. It returns the number of chunks added.
func (s *Store) InsertDocuments(ctx context.Context, docs []Document) (int, error) {
	chunks := s.splitter.SplitDocuments(docs)

	seen := make(map[uint64]bool, len(chunks))
	var todo []Document
	for i := range chunks {
		h := chunks[i].Hash()
		if seen[h] {
			continue
		}
		seen[h] = true

		exists, err := s.index.Contains(ctx, h)
		if err != nil {
			return 0, err
		}
		if exists {
			continue
		}
		chunks[i].ID = uuid.NewString()
		todo = append(todo, chunks[i])
	}

	added := 0
	for start := 0; start < len(todo); start += s.batchSize {
		end := min(start+s.batchSize, len(todo))
		batch := todo[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Content
		}
		vectors, err := s.embedder.CreateEmbedding(ctx, texts)
		if err != nil {
			return added, errors.WithMessage(err, "failed to create embeddings")
		}
		if err = s.index.Add(ctx, batch, vectors); err != nil {
			return added, err
		}
		added += len(batch)
		metricskey.StatsVectorDocumentsAdded.IncrCounter(float64(len(batch)), s.index.Name())
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"chunks", len(chunks),
		"added", added,
		"skipped", len(chunks)-added)
	return added, nil
}

// Search returns up to k chunks most similar to the query.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is required")
	}

	started := time.Now()
	defer metricskey.PerfVectorSearch.MeasureSince(started, s.index.Name())
	metricskey.StatsVectorSearches.IncrCounter(1, s.index.Name())

	vectors, err := s.embedder.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create query embedding")
	}
	if len(vectors) != 1 {
		return nil, errors.Newf("unexpected embeddings count: %d", len(vectors))
	}

	res, err := s.index.Search(ctx, vectors[0], k)
	if err != nil {
		return nil, err
	}
	logger.ContextKV(ctx, xlog.DEBUG, "query", query, "k", k, "results", len(res))
	return res, nil
}

// Save persists the memory index to the store folder.
// Other indexes are persisted by their backend.
func (s *Store) Save() error {
	mem, ok := s.index.(*MemoryIndex)
	if !ok || s.dir == "" {
		return nil
	}
	return mem.SaveDir(s.dir)
}

// Load reads the memory index from the store folder.
func (s *Store) Load() error {
	mem, ok := s.index.(*MemoryIndex)
	if !ok || s.dir == "" {
		return nil
	}
	return mem.LoadDir(s.dir)
}
