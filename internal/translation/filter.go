package translation

import "strings"

// Filter holds the optional listing predicates. A zero-value field means
// the predicate is absent and constrains nothing.
type Filter struct {
	Tag   string // exact tag name, case-sensitive
	Key   string // case-insensitive substring of key
	Value string // case-insensitive substring of value
}

// IsZero reports whether no predicate is set.
func (f Filter) IsZero() bool {
	return f.Tag == "" && f.Key == "" && f.Value == ""
}

// predicates reifies the present filters as match functions. The listing
// query is their conjunction; an absent filter contributes no function.
func (f Filter) predicates() []func(Translation) bool {
	var preds []func(Translation) bool
	if f.Tag != "" {
		tag := f.Tag
		preds = append(preds, func(t Translation) bool {
			for _, tg := range t.Tags {
				if tg.Name == tag {
					return true
				}
			}
			return false
		})
	}
	if f.Key != "" {
		key := strings.ToLower(f.Key)
		preds = append(preds, func(t Translation) bool {
			return strings.Contains(strings.ToLower(t.Key), key)
		})
	}
	if f.Value != "" {
		value := strings.ToLower(f.Value)
		preds = append(preds, func(t Translation) bool {
			return strings.Contains(strings.ToLower(t.Value), value)
		})
	}
	return preds
}

// Matches reports whether the translation satisfies every present predicate.
func (f Filter) Matches(t Translation) bool {
	for _, pred := range f.predicates() {
		if !pred(t) {
			return false
		}
	}
	return true
}
