package translation

import (
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Translation is a localized key/value pair scoped to a locale and
// taggable with free-form labels.
type Translation struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Locale    string    `json:"locale"` // ISO 639-1, exactly two characters
	Tags      []Tag     `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tag is a named label attachable to any number of translations.
// Names are unique; tags are created lazily and never deleted.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TagNames returns the translation's tag names in tag-id order.
func (t Translation) TagNames() []string {
	names := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// PageSize is the fixed page size for listings.
const PageSize = 20

// Page is the listing envelope. Data is ordered by ascending id so
// pagination stays stable between fetches absent concurrent writes.
type Page struct {
	Data    []Translation `json:"data"`
	Total   int           `json:"total"`
	Page    int           `json:"current_page"`
	PerPage int           `json:"per_page"`
}

var ErrNotFound = errors.New("translation not found")

// ValidationError enumerates the input fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid fields: " + strings.Join(e.Fields, ", ")
}

// Validate checks the field constraints shared by create and update:
// non-empty key and value, locale of exactly two characters.
func Validate(key, value, locale string) error {
	var fields []string
	if strings.TrimSpace(key) == "" {
		fields = append(fields, "key")
	}
	if strings.TrimSpace(value) == "" {
		fields = append(fields, "value")
	}
	if utf8.RuneCountInString(locale) != 2 {
		fields = append(fields, "locale")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// DedupeNames removes duplicate tag names (case-sensitive) preserving
// first-seen order. Blank names are dropped.
func DedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func sortTags(tags []Tag) {
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
}
