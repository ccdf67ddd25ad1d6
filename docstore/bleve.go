package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// sourceField holds the JSON encoding of the whole record. It is stored but
// not indexed, so reads return exactly what was written.
const sourceField = "doc_source"

var collectionNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// KeywordFields are always indexed verbatim, whatever their content looks like.
var KeywordFields = []string{"action_name", "team_name", "email"}

// BleveConfig configures the embedded index backend.
type BleveConfig struct {
	// IndexPath is the directory holding one index per collection.
	// Empty keeps every index in memory.
	IndexPath string
}

// BleveStore keeps each collection in its own Bleve index.
//
// Every string field is indexed with the keyword analyzer, so term queries
// are exact, case-sensitive matches and sorting is lexicographic.
type BleveStore struct {
	indexPath string
	logger    hclog.Logger

	mu      sync.Mutex
	indexes map[string]bleve.Index
	closed  bool

	// writeMu serializes read-modify-write updates.
	writeMu sync.Mutex
}

// NewBleveStore creates the index directory (if any) and returns the store.
// Indexes are opened lazily on first use of a collection.
func NewBleveStore(cfg BleveConfig, logger hclog.Logger) (*BleveStore, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if cfg.IndexPath != "" {
		if err := os.MkdirAll(cfg.IndexPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}
	return &BleveStore{
		indexPath: cfg.IndexPath,
		logger:    logger.Named("bleve"),
		indexes:   make(map[string]bleve.Index),
	}, nil
}

func newDocumentMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = keyword.Name
	indexMapping.StoreDynamic = false

	sourceMapping := bleve.NewTextFieldMapping()
	sourceMapping.Index = false
	sourceMapping.Store = true
	sourceMapping.IncludeInAll = false
	sourceMapping.IncludeTermVectors = false
	sourceMapping.DocValues = false

	indexMapping.DefaultMapping.AddFieldMappingsAt(sourceField, sourceMapping)

	// Dynamic strings that parse as dates are indexed as datetimes, which a
	// term query never matches. Fields used for lookup and sorting are
	// pinned to keyword.
	for _, field := range KeywordFields {
		indexMapping.DefaultMapping.AddFieldMappingsAt(field, bleve.NewKeywordFieldMapping())
	}
	return indexMapping
}

func (s *BleveStore) index(collection string) (bleve.Index, error) {
	if !collectionNamePattern.MatchString(collection) {
		return nil, fmt.Errorf("invalid collection name %q", collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrUnavailable
	}
	if idx, ok := s.indexes[collection]; ok {
		return idx, nil
	}

	var (
		idx bleve.Index
		err error
	)
	if s.indexPath == "" {
		idx, err = bleve.NewMemOnly(newDocumentMapping())
	} else {
		path := filepath.Join(s.indexPath, collection+".bleve")
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			s.logger.Info("creating index", "collection", collection, "path", path)
			idx, err = bleve.New(path, newDocumentMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", collection, err)
	}

	s.indexes[collection] = idx
	return idx, nil
}

// Get implements Store.
func (s *BleveStore) Get(ctx context.Context, collection, id string) (Document, error) {
	idx, err := s.index(collection)
	if err != nil {
		return Document{}, &Error{Op: "get", Collection: collection, ID: id, Err: err}
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDocIDQuery([]string{id}), 1, 0, false)
	req.Fields = []string{sourceField}

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return Document{}, &Error{Op: "get", Collection: collection, ID: id, Err: err}
	}
	if len(res.Hits) == 0 {
		return Document{}, &Error{Op: "get", Collection: collection, ID: id, Err: ErrNotFound}
	}

	doc, err := decodeHit(res.Hits[0].ID, res.Hits[0].Fields)
	if err != nil {
		return Document{}, &Error{Op: "get", Collection: collection, ID: id, Err: err}
	}
	return doc, nil
}

// Search implements Store.
func (s *BleveStore) Search(ctx context.Context, collection string, q Query) ([]Document, error) {
	idx, err := s.index(collection)
	if err != nil {
		return nil, &Error{Op: "search", Collection: collection, Err: err}
	}

	var bq query.Query = bleve.NewMatchAllQuery()
	if q.Field != "" {
		term := bleve.NewTermQuery(q.Value)
		term.SetField(q.Field)
		bq = term
	}

	req := bleve.NewSearchRequestOptions(bq, q.limit(), 0, false)
	req.Fields = []string{sourceField}
	if q.SortField != "" {
		sortBy := q.SortField
		if q.Descending {
			sortBy = "-" + sortBy
		}
		req.SortBy([]string{sortBy, "_id"})
	} else {
		req.SortBy([]string{"_id"})
	}

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, &Error{Op: "search", Collection: collection, Err: err}
	}

	docs := make([]Document, 0, len(res.Hits))
	for _, hit := range res.Hits {
		doc, err := decodeHit(hit.ID, hit.Fields)
		if err != nil {
			return nil, &Error{Op: "search", Collection: collection, ID: hit.ID, Err: err}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Index implements Store. Bleve introduces a write before Index returns, so
// both refresh modes give read-after-write consistency.
func (s *BleveStore) Index(ctx context.Context, collection, id string, source map[string]interface{}, refresh Refresh) (string, error) {
	idx, err := s.index(collection)
	if err != nil {
		return "", &Error{Op: "index", Collection: collection, ID: id, Err: err}
	}

	raw, err := json.Marshal(source)
	if err != nil {
		return "", &Error{Op: "index", Collection: collection, ID: id, Err: err, Msg: "failed to encode document"}
	}

	fields := make(map[string]interface{}, len(source)+1)
	for k, v := range source {
		fields[k] = v
	}
	fields[sourceField] = string(raw)

	if err := idx.Index(id, fields); err != nil {
		return "", &Error{Op: "index", Collection: collection, ID: id, Err: err}
	}
	return id, nil
}

// Update implements Store.
func (s *BleveStore) Update(ctx context.Context, collection, id string, partial map[string]interface{}, refresh Refresh) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	_, err = s.Index(ctx, collection, id, merge(existing.Source, partial), refresh)
	return err
}

// Delete implements Store.
func (s *BleveStore) Delete(ctx context.Context, collection, id string, refresh Refresh) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.Get(ctx, collection, id); err != nil {
		return err
	}

	idx, err := s.index(collection)
	if err != nil {
		return &Error{Op: "delete", Collection: collection, ID: id, Err: err}
	}
	if err := idx.Delete(id); err != nil {
		return &Error{Op: "delete", Collection: collection, ID: id, Err: err}
	}
	return nil
}

// Ping implements Store.
func (s *BleveStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrUnavailable
	}
	return nil
}

// Close closes every open index.
func (s *BleveStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result *multierror.Error
	for name, idx := range s.indexes {
		if err := idx.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close index %s: %w", name, err))
		}
	}
	s.indexes = make(map[string]bleve.Index)
	s.closed = true
	return result.ErrorOrNil()
}

func decodeHit(id string, fields map[string]interface{}) (Document, error) {
	raw, ok := fields[sourceField].(string)
	if !ok {
		return Document{}, fmt.Errorf("document %s has no stored source", id)
	}
	source := make(map[string]interface{})
	if err := json.Unmarshal([]byte(raw), &source); err != nil {
		return Document{}, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return Document{ID: id, Source: source}, nil
}
