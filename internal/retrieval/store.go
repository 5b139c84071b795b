// Package retrieval provides the optional document-search backend behind the
// executor's tool hop: a session-scoped in-memory vector index over a corpus
// directory. Nothing is persisted; the index is rebuilt at process start.
package retrieval

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"

	"github.com/sporefield/mycelium/internal/engine"
)

const collectionName = "corpus"

// snippetLimit caps how much of a document is surfaced per hit.
const snippetLimit = 400

// Document is one indexable unit of the corpus.
type Document struct {
	ID      string
	Title   string
	Path    string
	Content string
}

// Store is an in-memory vector index over corpus documents. It implements
// engine.SearchBackend.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   Embedder
}

// NewStore creates an empty in-memory store using the given embedder.
func NewStore(embedder Embedder) (*Store, error) {
	db := chromem.NewDB()
	ef := toChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Store{
		db:         db,
		collection: col,
		embedder:   embedder,
	}, nil
}

// toChromemFunc converts an Embedder into a chromem.EmbeddingFunc.
// chromem-go expects a function that embeds a single text at a time.
func toChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		results, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, nil
		}
		return results[0], nil
	}
}

// Add indexes documents into the store.
func (s *Store) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromDocs[i] = chromem.Document{
			ID:      doc.ID,
			Content: doc.Content,
			Metadata: map[string]string{
				"title": doc.Title,
				"path":  doc.Path,
			},
		}
	}

	return s.collection.AddDocuments(ctx, chromDocs, 1)
}

// Count returns the number of indexed documents.
func (s *Store) Count() int {
	return s.collection.Count()
}

// Search returns up to limit hits for the query, best match first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]engine.SearchHit, error) {
	if limit <= 0 {
		limit = 5
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := s.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]engine.SearchHit, len(results))
	for i, r := range results {
		hits[i] = engine.SearchHit{
			Title:   r.Metadata["title"],
			URI:     r.Metadata["path"],
			Snippet: snippet(r.Content),
		}
	}
	return hits, nil
}

func snippet(content string) string {
	if len(content) <= snippetLimit {
		return content
	}
	return content[:snippetLimit] + "..."
}
