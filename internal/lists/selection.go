package lists

import "github.com/mmcdole/moviebase/internal/domain"

// Selection is a set of item keys picked for a bulk operation.
// The helpers below never modify their input.
type Selection map[domain.ItemKey]struct{}

// Has reports whether key is selected
func (s Selection) Has(key domain.ItemKey) bool {
	_, ok := s[key]
	return ok
}

func (s Selection) Len() int {
	return len(s)
}

// Items returns the selected items of l in list order
func (s Selection) Items(l domain.List) []domain.CatalogItem {
	var out []domain.CatalogItem
	for _, item := range l.Items {
		if s.Has(item.Key()) {
			out = append(out, item)
		}
	}
	return out
}

// ToggleSelection returns a copy of sel with key added if absent or removed if present
func ToggleSelection(sel Selection, key domain.ItemKey) Selection {
	next := make(Selection, len(sel)+1)
	for k := range sel {
		next[k] = struct{}{}
	}
	if sel.Has(key) {
		delete(next, key)
	} else {
		next[key] = struct{}{}
	}
	return next
}

// SelectAll returns a selection holding every key
func SelectAll(keys []domain.ItemKey) Selection {
	sel := make(Selection, len(keys))
	for _, k := range keys {
		sel[k] = struct{}{}
	}
	return sel
}

// DeselectAll returns an empty selection
func DeselectAll() Selection {
	return Selection{}
}

// KeysOf returns the identity keys of items in order
func KeysOf(items []domain.CatalogItem) []domain.ItemKey {
	keys := make([]domain.ItemKey, len(items))
	for i, item := range items {
		keys[i] = item.Key()
	}
	return keys
}
