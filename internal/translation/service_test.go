package translation

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCreateGetRoundtrip(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	created, err := s.Create(ctx, "app.title", "My App", "en", []string{"web", "mobile"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected non-zero id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Key != "app.title" || got.Value != "My App" || got.Locale != "en" {
		t.Fatalf("unexpected translation: %+v", got)
	}
	if len(got.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(got.Tags))
	}
}

func TestValidation(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	cases := []struct {
		name   string
		key    string
		value  string
		locale string
		fields []string
	}{
		{"empty key", "", "v", "en", []string{"key"}},
		{"blank key", "   ", "v", "en", []string{"key"}},
		{"empty value", "k", "", "en", []string{"value"}},
		{"bad locale", "k", "v", "eng", []string{"locale"}},
		{"all wrong", "", "", "x", []string{"key", "value", "locale"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Create(ctx, tc.key, tc.value, tc.locale, nil)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Fields) != len(tc.fields) {
				t.Fatalf("expected fields %v, got %v", tc.fields, verr.Fields)
			}
			for i, f := range tc.fields {
				if verr.Fields[i] != f {
					t.Fatalf("expected fields %v, got %v", tc.fields, verr.Fields)
				}
			}
		})
	}

	// Two-rune non-ASCII locales pass the length check.
	if _, err := s.Create(ctx, "k", "v", "日本", nil); err != nil {
		t.Fatalf("two-rune locale rejected: %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	s := NewInMemory()
	if _, err := s.Get(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	created, err := s.Create(ctx, "btn.save", "Save", "en", []string{"web"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := s.Update(ctx, created.ID, "btn.save", "Save changes", "en", []string{"web", "desktop"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Value != "Save changes" {
		t.Fatalf("value not updated: %+v", updated)
	}
	if got := updated.TagNames(); len(got) != 2 {
		t.Fatalf("expected 2 tags after update, got %v", got)
	}

	if _, err := s.Update(ctx, 999, "k", "v", "en", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateEmptyTagsKeepsExisting(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	created, err := s.Create(ctx, "k", "v", "en", []string{"web", "mobile"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := s.Update(ctx, created.ID, "k", "v2", "en", nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated.Tags) != 2 {
		t.Fatalf("empty tag list must not clear tags, got %v", updated.TagNames())
	}
}

func TestReconcileRemovesDetachedTags(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	created, err := s.Create(ctx, "k", "v", "en", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := s.Update(ctx, created.ID, "k", "v", "en", []string{"b", "d"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	names := updated.TagNames()
	if len(names) != 2 {
		t.Fatalf("expected tags {b, d}, got %v", names)
	}
	for _, n := range names {
		if n != "b" && n != "d" {
			t.Fatalf("unexpected tag %q in %v", n, names)
		}
	}
}

func TestReconcileReusesTagIDs(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	first, err := s.Create(ctx, "k1", "v", "en", []string{"shared"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := s.Create(ctx, "k2", "v", "en", []string{"shared"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.Tags[0].ID != second.Tags[0].ID {
		t.Fatalf("same name must map to same tag id: %d vs %d", first.Tags[0].ID, second.Tags[0].ID)
	}
}

func TestReconcileDedupesInput(t *testing.T) {
	s := NewInMemory()
	created, err := s.Create(context.Background(), "k", "v", "en", []string{"web", "web", "", "web"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created.Tags) != 1 {
		t.Fatalf("expected duplicates collapsed to one tag, got %v", created.TagNames())
	}
}

func TestDelete(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	created, err := s.Create(ctx, "k", "v", "en", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete must return ErrNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted row still readable")
	}
}

func TestListPagination(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	const n = PageSize*2 + 5
	for i := 0; i < n; i++ {
		if _, err := s.Create(ctx, fmt.Sprintf("key.%03d", i), "v", "en", nil); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	seen := make(map[int64]bool)
	var prev int64
	for page := 1; ; page++ {
		res, err := s.List(ctx, Filter{}, page)
		if err != nil {
			t.Fatalf("List page %d: %v", page, err)
		}
		if res.Total != n {
			t.Fatalf("page %d: total = %d, want %d", page, res.Total, n)
		}
		if res.PerPage != PageSize || res.Page != page {
			t.Fatalf("page %d: bad envelope %+v", page, res)
		}
		if len(res.Data) == 0 {
			break
		}
		for _, tr := range res.Data {
			if tr.ID <= prev {
				t.Fatalf("ids not ascending: %d after %d", tr.ID, prev)
			}
			prev = tr.ID
			seen[tr.ID] = true
		}
	}
	if len(seen) != n {
		t.Fatalf("pages union covers %d rows, want %d", len(seen), n)
	}
}

func TestListPastEnd(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	if _, err := s.Create(ctx, "k", "v", "en", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	res, err := s.List(ctx, Filter{}, 50)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(res.Data) != 0 || res.Total != 1 {
		t.Fatalf("expected empty page with total 1, got %+v", res)
	}
}

func TestScanLocale(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	seed := map[string]string{
		"b.key": "two",
		"a.key": "one",
		"c.key": "three",
	}
	for k, v := range seed {
		if _, err := s.Create(ctx, k, v, "en", nil); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if _, err := s.Create(ctx, "a.key", "other locale", "fr", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var keys []string
	got := make(map[string]string)
	err := s.ScanLocale(ctx, "en", 2, func(key, value string) error {
		keys = append(keys, key)
		got[key] = value
		return nil
	})
	if err != nil {
		t.Fatalf("ScanLocale: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(got))
	}
	want := []string{"a.key", "b.key", "c.key"}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("keys not sorted: got %v", keys)
		}
	}
	if got["a.key"] != "one" {
		t.Fatalf("fr row leaked into en scan: %v", got)
	}
}

func TestScanLocaleLastWriteWins(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if _, err := s.Create(ctx, "dup.key", "old", "en", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, "dup.key", "new", "en", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got := make(map[string]string)
	if err := s.ScanLocale(ctx, "en", 100, func(key, value string) error {
		got[key] = value
		return nil
	}); err != nil {
		t.Fatalf("ScanLocale: %v", err)
	}
	if len(got) != 1 || got["dup.key"] != "new" {
		t.Fatalf("expected latest row to win, got %v", got)
	}
}

func TestScanLocaleStopsOnCancel(t *testing.T) {
	s := NewInMemory()
	for i := 0; i < 10; i++ {
		if _, err := s.Create(context.Background(), fmt.Sprintf("k%d", i), "v", "en", nil); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := s.ScanLocale(ctx, "en", 3, func(key, value string) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls > 3 {
		t.Fatalf("scan kept running after cancel: %d calls", calls)
	}
}

func TestScanLocaleStopsOnCallbackError(t *testing.T) {
	s := NewInMemory()
	for i := 0; i < 5; i++ {
		if _, err := s.Create(context.Background(), fmt.Sprintf("k%d", i), "v", "en", nil); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	boom := errors.New("boom")
	calls := 0
	err := s.ScanLocale(context.Background(), "en", 10, func(key, value string) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected scan to stop after first error, got %d calls", calls)
	}
}

func TestScanLocaleUnknownLocale(t *testing.T) {
	s := NewInMemory()
	if _, err := s.Create(context.Background(), "k", "v", "en", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	calls := 0
	if err := s.ScanLocale(context.Background(), "zz", 10, func(key, value string) error {
		calls++
		return nil
	}); err != nil {
		t.Fatalf("ScanLocale: %v", err)
	}
	if calls != 0 {
		t.Fatalf("unknown locale must yield no pairs, got %d", calls)
	}
}

func TestDedupeNames(t *testing.T) {
	got := DedupeNames([]string{"a", "b", "a", "", "B", "b"})
	want := []string{"a", "b", "B"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
