package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/procurelabs/vendor-research-cli/internal/model"
)

// FileStore implements Store as a single human-diffable JSON document.
// A process-wide mutex serializes read-modify-write cycles; the file is
// replaced atomically via rename so a crash never leaves a torn write.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFile creates a FileStore at the given path. The file is created
// lazily on first save.
func NewFile(path string) *FileStore {
	return &FileStore{path: path}
}

// fileDoc is the on-disk document. Queries are keyed by the normalized
// query text; values stay raw so legacy unversioned records can be
// detected per entry.
type fileDoc struct {
	Queries map[string]json.RawMessage `json:"queries"`
}

func (s *FileStore) SaveVersion(ctx context.Context, queryText string, v *model.Version) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDoc()
	if err != nil {
		return 0, err
	}

	key := model.NormalizeKey(queryText)
	q, _, err := decodeEntry(key, doc.Queries[key])
	if err != nil {
		return 0, err
	}
	if q == nil {
		q = &model.Query{Slug: model.Slugify(queryText), QueryText: queryText}
	}

	number := nextVersionNumber(q)
	v.Number = number
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	q.Versions = append(q.Versions, *v)
	q.CurrentVersion = number
	q.LastUpdated = time.Now().UTC()

	raw, err := json.Marshal(q)
	if err != nil {
		return 0, eris.Wrap(err, "file: marshal query")
	}
	doc.Queries[key] = raw

	if err := s.writeDoc(doc); err != nil {
		return 0, err
	}
	return number, nil
}

func (s *FileStore) LoadCurrent(ctx context.Context, queryID string) (*model.Query, *model.Version, error) {
	q, err := s.loadQuery(queryID)
	if err != nil {
		return nil, nil, err
	}
	v := q.Version(q.CurrentVersion)
	if v == nil {
		return nil, nil, eris.Wrapf(ErrNotFound, "file: query %s has no current version", queryID)
	}
	return q, v, nil
}

func (s *FileStore) LoadVersion(ctx context.Context, queryID string, number int) (*model.Query, *model.Version, error) {
	q, err := s.loadQuery(queryID)
	if err != nil {
		return nil, nil, err
	}
	v := q.Version(number)
	if v == nil {
		return nil, nil, eris.Wrapf(ErrNotFound, "file: query %s version %d", queryID, number)
	}
	return q, v, nil
}

func (s *FileStore) ListVersions(ctx context.Context, queryID string) ([]model.VersionSummary, error) {
	q, err := s.loadQuery(queryID)
	if err != nil {
		return nil, err
	}
	return q.Summaries(), nil
}

func (s *FileStore) ListQueries(ctx context.Context) ([]model.QuerySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDoc()
	if err != nil {
		return nil, err
	}

	out := make([]model.QuerySummary, 0, len(doc.Queries))
	for key, raw := range doc.Queries {
		q, _, err := decodeEntry(key, raw)
		if err != nil {
			return nil, err
		}
		if q != nil {
			out = append(out, q.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastUpdated.Equal(out[j].LastUpdated) {
			return out[i].LastUpdated.After(out[j].LastUpdated)
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

func (s *FileStore) MigrateLegacy(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDoc()
	if err != nil {
		return 0, err
	}

	migrated := 0
	for key, raw := range doc.Queries {
		q, wasLegacy, err := decodeEntry(key, raw)
		if err != nil {
			return migrated, err
		}
		if !wasLegacy {
			continue
		}
		out, err := json.Marshal(q)
		if err != nil {
			return migrated, eris.Wrapf(err, "file: marshal migrated query %s", key)
		}
		doc.Queries[key] = out
		migrated++
	}

	if migrated > 0 {
		if err := s.writeDoc(doc); err != nil {
			return migrated, err
		}
	}
	return migrated, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) loadQuery(queryID string) (*model.Query, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDoc()
	if err != nil {
		return nil, err
	}

	// Fast path: the id is the normalized query text itself.
	if raw, ok := doc.Queries[model.NormalizeKey(queryID)]; ok {
		q, _, err := decodeEntry(model.NormalizeKey(queryID), raw)
		if err != nil {
			return nil, err
		}
		if q != nil {
			return q, nil
		}
	}

	// Otherwise match on slug.
	for key, raw := range doc.Queries {
		q, _, err := decodeEntry(key, raw)
		if err != nil {
			return nil, err
		}
		if q != nil && q.Slug == queryID {
			return q, nil
		}
	}
	return nil, eris.Wrapf(ErrNotFound, "file: query %s", queryID)
}

func (s *FileStore) readDoc() (*fileDoc, error) {
	doc := &fileDoc{Queries: map[string]json.RawMessage{}}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "file: read %s", s.path)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, eris.Wrapf(err, "file: parse %s", s.path)
	}
	if doc.Queries == nil {
		doc.Queries = map[string]json.RawMessage{}
	}
	return doc, nil
}

func (s *FileStore) writeDoc(doc *fileDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "file: marshal document")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "file: mkdir %s", dir)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "file: write %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return eris.Wrapf(err, "file: rename %s", s.path)
	}
	return nil
}

// decodeEntry decodes one stored query. Legacy entries predate version
// history: a bare run payload stored directly under the query key. Those
// are lifted into version 1 of a versioned query; the second return
// reports whether that lift happened.
func decodeEntry(key string, raw json.RawMessage) (*model.Query, bool, error) {
	if len(raw) == 0 {
		return nil, false, nil
	}

	var probe struct {
		Versions []json.RawMessage `json:"versions"`
		Vendors  []json.RawMessage `json:"vendors"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, false, eris.Wrapf(err, "file: parse entry %s", key)
	}

	if probe.Versions != nil {
		q := &model.Query{}
		if err := json.Unmarshal(raw, q); err != nil {
			return nil, false, eris.Wrapf(err, "file: parse query %s", key)
		}
		if q.QueryText == "" {
			q.QueryText = key
		}
		if q.Slug == "" {
			q.Slug = model.Slugify(q.QueryText)
		}
		return q, false, nil
	}

	if probe.Vendors == nil {
		return nil, false, nil
	}

	var v model.Version
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, eris.Wrapf(err, "file: parse legacy entry %s", key)
	}
	v.Number = 1
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	return &model.Query{
		Slug:           model.Slugify(key),
		QueryText:      key,
		Versions:       []model.Version{v},
		CurrentVersion: 1,
		LastUpdated:    v.CreatedAt,
	}, true, nil
}

func nextVersionNumber(q *model.Query) int {
	max := 0
	for i := range q.Versions {
		if q.Versions[i].Number > max {
			max = q.Versions[i].Number
		}
	}
	return max + 1
}
