package terminology

import "fmt"

// Attribute names with a dedicated meaning in dictionary documents.
const (
	// SlicerLabelAttribute is the alias used to look a type up by label.
	SlicerLabelAttribute = "3dSlicerLabel"
	// RecommendedColorAttribute holds the recommended display color.
	RecommendedColorAttribute = "recommendedDisplayRGBValue"
	// ShowAnatomyAttribute tells whether anatomic region selection applies to a category.
	ShowAnatomyAttribute = "showAnatomy"
	// SearchTermsAttribute holds alternate names matched by the search engine.
	SearchTermsAttribute = "SearchTerms"
	// ContextGroupNameAttribute names the DICOM context group a code belongs to.
	ContextGroupNameAttribute = "contextGroupName"
)

// Color is a recommended display color.
type Color struct {
	R, G, B uint8
}

// String returns the color as "#rrggbb".
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Node is a single coded entry in a context tree. The same shape serves every
// level: categories hold types, types hold modifiers, anatomic regions hold
// region modifiers, and modifiers have no children.
type Node struct {
	ID CodeIdentifier

	// Children in dictionary declaration order.
	Children []*Node

	// ShowAnatomy is only meaningful on categories. HasShowAnatomy reports
	// whether the dictionary declared it.
	ShowAnatomy    bool
	HasShowAnatomy bool

	// RecommendedColor is nil when the dictionary does not provide one.
	RecommendedColor *Color

	// SlicerLabel is the "3dSlicerLabel" alias, empty if absent.
	SlicerLabel string

	// SearchTerms are alternate names matched by the search engine.
	SearchTerms []string

	ContextGroupName string

	// Attributes holds the raw value of every scalar field found on the node
	// other than the code triple, including the ones decoded above.
	Attributes map[string]string

	index map[CodeKey]int
}

// Child returns the direct child with the given identity.
func (n *Node) Child(id CodeIdentifier) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	i, ok := n.index[id.Key()]
	if !ok {
		return nil, false
	}
	return n.Children[i], true
}

// ChildIDs returns the identifiers of the direct children in declaration order.
func (n *Node) ChildIDs() []CodeIdentifier {
	return nodeIDs(n.Children)
}

// Attribute returns the raw value of a node field.
func (n *Node) Attribute(name string) (string, bool) {
	v, ok := n.Attributes[name]
	return v, ok
}

// HasModifiers returns true if the node has children.
func (n *Node) HasModifiers() bool {
	return len(n.Children) > 0
}

// clone returns a deep copy of the node tree.
func (n *Node) clone() *Node {
	c := n.copyFields()
	c.Children = make([]*Node, len(n.Children))
	for i, child := range n.Children {
		c.Children[i] = child.clone()
	}
	c.index = buildIndex(c.Children)
	return c
}

// copyFields copies everything but the children.
func (n *Node) copyFields() *Node {
	c := *n
	c.Children, c.index = nil, nil
	if n.RecommendedColor != nil {
		color := *n.RecommendedColor
		c.RecommendedColor = &color
	}
	if n.SearchTerms != nil {
		c.SearchTerms = append([]string(nil), n.SearchTerms...)
	}
	if n.Attributes != nil {
		c.Attributes = make(map[string]string, len(n.Attributes))
		for k, v := range n.Attributes {
			c.Attributes[k] = v
		}
	}
	return &c
}

// addChild appends child, or returns the existing sibling with the same identity.
func (n *Node) addChild(child *Node) *Node {
	if existing, ok := n.Child(child.ID); ok {
		return existing
	}
	if n.index == nil {
		n.index = make(map[CodeKey]int)
	}
	n.index[child.ID.Key()] = len(n.Children)
	n.Children = append(n.Children, child)
	return child
}

// buildIndex maps child identities to positions.
// Callers are expected to have rejected duplicates already.
func buildIndex(nodes []*Node) map[CodeKey]int {
	index := make(map[CodeKey]int, len(nodes))
	for i, n := range nodes {
		index[n.ID.Key()] = i
	}
	return index
}

func nodeIDs(nodes []*Node) []CodeIdentifier {
	ids := make([]CodeIdentifier, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// Kind distinguishes the two context namespaces.
type Kind int

const (
	// KindTerminology is a category/type/modifier dictionary.
	KindTerminology Kind = iota
	// KindAnatomic is a region/region-modifier dictionary.
	KindAnatomic
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTerminology:
		return "terminology"
	case KindAnatomic:
		return "anatomic context"
	default:
		return "unknown"
	}
}

// TerminologyContext is a named dictionary of categories, types and modifiers.
// It is immutable once it has been inserted into a Store.
type TerminologyContext struct {
	Name       string
	Categories []*Node

	root *Node
}

func newTerminologyContext(name string, categories []*Node) *TerminologyContext {
	root := &Node{Children: categories, index: buildIndex(categories)}
	return &TerminologyContext{Name: name, Categories: categories, root: root}
}

// Category returns the category with the given identity.
func (t *TerminologyContext) Category(id CodeIdentifier) (*Node, bool) {
	return t.root.Child(id)
}

func (t *TerminologyContext) clone() *TerminologyContext {
	root := t.root.clone()
	return &TerminologyContext{Name: t.Name, Categories: root.Children, root: root}
}

// AnatomicContext is a named, category-less dictionary of anatomic regions.
// It is immutable once it has been inserted into a Store.
type AnatomicContext struct {
	Name    string
	Regions []*Node

	root *Node
}

func newAnatomicContext(name string, regions []*Node) *AnatomicContext {
	root := &Node{Children: regions, index: buildIndex(regions)}
	return &AnatomicContext{Name: name, Regions: regions, root: root}
}

// Region returns the region with the given identity.
func (a *AnatomicContext) Region(id CodeIdentifier) (*Node, bool) {
	return a.root.Child(id)
}

func (a *AnatomicContext) clone() *AnatomicContext {
	root := a.root.clone()
	return &AnatomicContext{Name: a.Name, Regions: root.Children, root: root}
}
