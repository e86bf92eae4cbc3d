package catalog

import (
	"strings"

	"kioskpos/internal/domain"
)

// FilterState is the kiosk's category selection. Empty ids mean "none".
// Transitions are value methods: they return the next state and never
// validate ids, since categories can disappear under a running kiosk.
type FilterState struct {
	ActiveMain   string `json:"activeMain,omitempty" db:"active_main"`
	ActiveSub    string `json:"activeSub,omitempty" db:"active_sub"`
	ActiveDetail string `json:"activeDetail,omitempty" db:"active_detail"`
	SearchQuery  string `json:"searchQuery,omitempty" db:"search_query"`
}

// InitialState selects the first main category and its first sub and
// detail, in server order. An empty tree yields the zero state.
func InitialState(t *Tree) FilterState {
	var s FilterState
	if t == nil || len(t.mains) == 0 {
		return s
	}
	s.ActiveMain = t.mains[0]
	s.ActiveSub = t.FirstChild(s.ActiveMain)
	if s.ActiveSub != "" {
		s.ActiveDetail = t.FirstChild(s.ActiveSub)
	}
	return s
}

func (s FilterState) SetMain(id string) FilterState {
	s.ActiveMain, s.ActiveSub, s.ActiveDetail = id, "", ""
	return s
}

func (s FilterState) SetSub(id string) FilterState {
	s.ActiveSub, s.ActiveDetail = id, ""
	return s
}

func (s FilterState) SetDetail(id string) FilterState {
	s.ActiveDetail = id
	return s
}

func (s FilterState) SetSearch(q string) FilterState {
	s.SearchQuery = q
	return s
}

// Searching reports whether the search query overrides the category fields.
func (s FilterState) Searching() bool { return normalize(s.SearchQuery) != "" }

// Visible is the product predicate. A non-empty query matches the name or
// any hashtag and ignores categories; otherwise the product must sit under
// the active main and, when set, the active sub and detail.
func (s FilterState) Visible(p domain.Product) bool {
	if q := normalize(s.SearchQuery); q != "" {
		if contains(p.Name, q) {
			return true
		}
		for _, tag := range p.Hashtags {
			if contains(tag, q) {
				return true
			}
		}
		return false
	}
	if s.ActiveMain == "" || p.MainCategory != s.ActiveMain {
		return false
	}
	if s.ActiveSub != "" && p.SubCategory != s.ActiveSub {
		return false
	}
	if s.ActiveDetail != "" && p.DetailCategory != s.ActiveDetail {
		return false
	}
	return true
}

// Apply returns the visible products, preserving order.
func (s FilterState) Apply(products []domain.Product) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if s.Visible(p) {
			out = append(out, p)
		}
	}
	return out
}

func normalize(q string) string { return strings.ToLower(strings.TrimSpace(q)) }

func contains(s, lowerQ string) bool { return strings.Contains(strings.ToLower(s), lowerQ) }
