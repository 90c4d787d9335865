// Package vectorstore provides the academic library index: PDF books are split
// into chunks, embedded and searched by cosine similarity.
package vectorstore

import (
	"maps"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "vectorstore")

// ErrEmptyIndex is returned when a search is run against an index with no documents.
var ErrEmptyIndex = errors.New("vector index is empty")

// Metadata keys
const (
	MetadataSource = "source"
	MetadataPage   = "page"
)

// Document is a piece of text stored in the index.
type Document struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Match is a search result with its similarity score.
type Match struct {
	Document
	Score float32 `json:"score"`
}

// Hash returns the de-duplication key of the document content.
func (d *Document) Hash() uint64 {
	return xxhash.Sum64String(d.Content)
}

func (d *Document) clone(content string) Document {
	return Document{
		Content:  content,
		Metadata: maps.Clone(d.Metadata),
	}
}
