package translation

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Service defines translation store operations. All writes are atomic:
// the row mutation and the tag reconciliation either both apply or neither
// does, and readers never observe a partially reconciled tag set.
//
// An empty tags slice on Create or Update leaves the existing tag set
// unchanged; there is no "clear all tags" operation in this API.
type Service interface {
	Create(ctx context.Context, key, value, locale string, tags []string) (Translation, error)
	Get(ctx context.Context, id int64) (Translation, error)
	Update(ctx context.Context, id int64, key, value, locale string, tags []string) (Translation, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f Filter, page int) (Page, error)

	// ScanLocale streams the locale's key/value pairs to fn in ascending
	// key order, reading in chunks of chunkSize rows so memory stays
	// bounded for arbitrarily large locales. Rows sharing a key collapse
	// to the one with the highest id (last write wins). The scan stops
	// early when fn returns an error or ctx is cancelled.
	ScanLocale(ctx context.Context, locale string, chunkSize int, fn func(key, value string) error) error
}

// InMemory implements Service with in-process concurrency safety.
// It backs the HTTP handler tests; production runs on the pg store.
type InMemory struct {
	mu         sync.RWMutex
	seq        int64
	tagSeq     int64
	rows       map[int64]*record
	ids        []int64 // ascending
	tagsByName map[string]Tag
}

type record struct {
	t      Translation
	tagIDs map[int64]Tag
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		rows:       make(map[int64]*record),
		tagsByName: make(map[string]Tag),
	}
}

func (s *InMemory) Create(ctx context.Context, key, value, locale string, tags []string) (Translation, error) {
	if err := Validate(key, value, locale); err != nil {
		return Translation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	now := time.Now().UTC()
	rec := &record{
		t: Translation{
			ID:        s.seq,
			Key:       key,
			Value:     value,
			Locale:    locale,
			CreatedAt: now,
			UpdatedAt: now,
		},
		tagIDs: make(map[int64]Tag),
	}
	s.rows[rec.t.ID] = rec
	s.ids = append(s.ids, rec.t.ID)
	s.reconcile(rec, tags)
	return rec.snapshot(), nil
}

func (s *InMemory) Get(ctx context.Context, id int64) (Translation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rows[id]
	if !ok {
		return Translation{}, ErrNotFound
	}
	return rec.snapshot(), nil
}

func (s *InMemory) Update(ctx context.Context, id int64, key, value, locale string, tags []string) (Translation, error) {
	if err := Validate(key, value, locale); err != nil {
		return Translation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[id]
	if !ok {
		return Translation{}, ErrNotFound
	}
	rec.t.Key = key
	rec.t.Value = value
	rec.t.Locale = locale
	rec.t.UpdatedAt = time.Now().UTC()
	s.reconcile(rec, tags)
	return rec.snapshot(), nil
}

func (s *InMemory) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	// Orphan tags persist; they are never garbage collected.
	return nil
}

func (s *InMemory) List(ctx context.Context, f Filter, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Translation
	for _, id := range s.ids {
		t := s.rows[id].snapshot()
		if f.IsZero() || f.Matches(t) {
			matched = append(matched, t)
		}
	}
	total := len(matched)
	start := (page - 1) * PageSize
	if start > total {
		start = total
	}
	end := start + PageSize
	if end > total {
		end = total
	}
	return Page{
		Data:    matched[start:end],
		Total:   total,
		Page:    page,
		PerPage: PageSize,
	}, nil
}

func (s *InMemory) ScanLocale(ctx context.Context, locale string, chunkSize int, fn func(key, value string) error) error {
	s.mu.RLock()
	// Last write wins: ids ascend, so later rows overwrite earlier ones.
	byKey := make(map[string]string)
	for _, id := range s.ids {
		rec := s.rows[id]
		if rec.t.Locale == locale {
			byKey[rec.t.Key] = rec.t.Value
		}
	}
	s.mu.RUnlock()

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(k, byKey[k]); err != nil {
			return err
		}
	}
	return nil
}

// reconcile makes rec's tag set equal the deduplicated target names,
// creating missing tags on the way. An empty target list is a no-op.
// Caller holds the write lock.
func (s *InMemory) reconcile(rec *record, names []string) {
	names = DedupeNames(names)
	if len(names) == 0 {
		return
	}
	target := make(map[int64]Tag, len(names))
	for _, name := range names {
		tag, ok := s.tagsByName[name]
		if !ok {
			s.tagSeq++
			tag = Tag{ID: s.tagSeq, Name: name}
			s.tagsByName[name] = tag
		}
		target[tag.ID] = tag
	}
	for id, tag := range target {
		if _, ok := rec.tagIDs[id]; !ok {
			rec.tagIDs[id] = tag
		}
	}
	for id := range rec.tagIDs {
		if _, ok := target[id]; !ok {
			delete(rec.tagIDs, id)
		}
	}
}

func (r *record) snapshot() Translation {
	out := r.t
	out.Tags = make([]Tag, 0, len(r.tagIDs))
	for _, tag := range r.tagIDs {
		out.Tags = append(out.Tags, tag)
	}
	sortTags(out.Tags)
	return out
}
