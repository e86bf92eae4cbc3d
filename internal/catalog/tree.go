package catalog

import "kioskpos/internal/domain"

// Node is one category in the arena. Children keeps server order.
type Node struct {
	domain.Category
	Children []string
}

// Tree is a normalized three-level taxonomy: every category lives once in
// nodes, parents only hold child ids. Categories whose parent is missing or
// of the wrong level stay addressable by id but are unreachable from Mains.
type Tree struct {
	nodes map[string]*Node
	mains []string
}

// NewTree builds the arena from a mixed-level list in server order.
func NewTree(cats []domain.Category) *Tree {
	t := &Tree{nodes: make(map[string]*Node, len(cats))}
	kept := make([]domain.Category, 0, len(cats))
	for _, c := range cats {
		if _, dup := t.nodes[c.ID]; dup {
			continue
		}
		t.nodes[c.ID] = &Node{Category: c}
		kept = append(kept, c)
		if c.Level == domain.LevelMain {
			t.mains = append(t.mains, c.ID)
		}
	}
	for _, c := range kept {
		if c.ParentID == "" {
			continue
		}
		parent, ok := t.nodes[c.ParentID]
		if !ok || parent.Level != parentLevel(c.Level) {
			continue
		}
		parent.Children = append(parent.Children, c.ID)
	}
	return t
}

func parentLevel(l domain.Level) domain.Level {
	switch l {
	case domain.LevelSub:
		return domain.LevelMain
	case domain.LevelDetail:
		return domain.LevelSub
	}
	return ""
}

func (t *Tree) Get(id string) (domain.Category, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return domain.Category{}, false
	}
	return n.Category, true
}

func (t *Tree) Len() int { return len(t.nodes) }

// Mains returns the main categories in server order.
func (t *Tree) Mains() []domain.Category { return t.collect(t.mains) }

// Children returns the direct children of id; unknown ids have none.
func (t *Tree) Children(id string) []domain.Category {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return t.collect(n.Children)
}

// FirstChild returns the id of the first child of id, or "".
func (t *Tree) FirstChild(id string) string {
	if n, ok := t.nodes[id]; ok && len(n.Children) > 0 {
		return n.Children[0]
	}
	return ""
}

// Search returns main categories whose name contains q, case-insensitively.
func (t *Tree) Search(q string) []domain.Category {
	q = normalize(q)
	if q == "" {
		return t.Mains()
	}
	var out []domain.Category
	for _, c := range t.Mains() {
		if contains(c.Name, q) {
			out = append(out, c)
		}
	}
	return out
}

func (t *Tree) collect(ids []string) []domain.Category {
	out := make([]domain.Category, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.nodes[id].Category)
	}
	return out
}
