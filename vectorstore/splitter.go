package vectorstore

import (
	"strings"
	"unicode/utf8"

	"github.com/effective-security/xlog"
)

// Default splitter settings
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
	DefaultSeparator    = "\n"
)

// Splitter splits text on a separator and merges the pieces into chunks of
// at most ChunkSize characters, carrying up to ChunkOverlap characters of the
// previous chunk into the next one.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separator    string
}

// NewSplitter returns a splitter with the default settings.
func NewSplitter() *Splitter {
	return &Splitter{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Separator:    DefaultSeparator,
	}
}

// SplitText returns the chunks of text.
func (s *Splitter) SplitText(text string) []string {
	var pieces []string
	var parts []string
	if s.Separator == "" {
		parts = strings.Split(text, "")
	} else {
		parts = strings.Split(text, s.Separator)
	}
	for _, p := range parts {
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return s.merge(pieces)
}

// SplitDocuments splits every document, copying its metadata into each chunk.
func (s *Splitter) SplitDocuments(docs []Document) []Document {
	var res []Document
	for i := range docs {
		for _, chunk := range s.SplitText(docs[i].Content) {
			res = append(res, docs[i].clone(chunk))
		}
	}
	return res
}

func (s *Splitter) merge(pieces []string) []string {
	sepLen := utf8.RuneCountInString(s.Separator)

	var chunks []string
	var current []string
	total := 0

	sepIf := func(cond bool) int {
		if cond {
			return sepLen
		}
		return 0
	}

	for _, piece := range pieces {
		l := utf8.RuneCountInString(piece)
		if total+l+sepIf(len(current) > 0) > s.ChunkSize {
			if total > s.ChunkSize {
				logger.KV(xlog.WARNING,
					"reason", "chunk_too_long",
					"size", total,
					"chunk_size", s.ChunkSize)
			}
			if len(current) > 0 {
				if chunk := s.join(current); chunk != "" {
					chunks = append(chunks, chunk)
				}
				for total > s.ChunkOverlap ||
					(total+l+sepIf(len(current) > 0) > s.ChunkSize && total > 0) {
					total -= utf8.RuneCountInString(current[0]) + sepIf(len(current) > 1)
					current = current[1:]
				}
			}
		}
		current = append(current, piece)
		total += l + sepIf(len(current) > 1)
	}
	if chunk := s.join(current); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func (s *Splitter) join(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, s.Separator))
}
