package facts

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrNotMapping = errors.New("facts document is not a mapping")

// Tree is an ordered nested mapping. Entries keep the key order of the source
// document so that traversal and rendering are deterministic.
type Tree struct {
	Entries []Entry
}

// Entry is either a scalar leaf (Children == nil) or a nested subtree.
type Entry struct {
	Key      string
	Value    string
	Children *Tree
}

func (e Entry) IsLeaf() bool {
	return e.Children == nil
}

func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Entries)
}

// Get walks the tree along path and returns the entry at its end.
func (t *Tree) Get(path ...string) (Entry, bool) {
	cur := t
	for i, key := range path {
		if cur == nil {
			return Entry{}, false
		}
		found := false
		for _, e := range cur.Entries {
			if e.Key != key {
				continue
			}
			if i == len(path)-1 {
				return e, true
			}
			cur, found = e.Children, true
			break
		}
		if !found {
			return Entry{}, false
		}
	}
	return Entry{}, false
}

// Flatten renders every leaf as one "parent: child: key: value" line with
// underscores in keys replaced by spaces.
func (t *Tree) Flatten() string {
	var lines []string
	t.flatten("", &lines)
	return strings.Join(lines, "\n")
}

func (t *Tree) flatten(prefix string, lines *[]string) {
	if t == nil {
		return
	}
	for _, e := range t.Entries {
		key := HumanKey(e.Key)
		if e.IsLeaf() {
			*lines = append(*lines, prefix+key+": "+e.Value)
			continue
		}
		e.Children.flatten(prefix+key+": ", lines)
	}
}

// HumanKey is the display form of a fact key.
func HumanKey(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

// Parse decodes a JSON or YAML document into a Tree. When rootKey is set and
// present at the top level, only that subtree is returned.
func Parse(data []byte, rootKey string) (*Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse facts document: %w", err)
	}
	if len(doc.Content) == 0 {
		return &Tree{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}
	tree := fromMapping(root)

	if rootKey != "" {
		if e, ok := tree.Get(rootKey); ok && !e.IsLeaf() {
			return e.Children, nil
		}
	}
	return tree, nil
}

func fromMapping(node *yaml.Node) *Tree {
	tree := &Tree{Entries: make([]Entry, 0, len(node.Content)/2)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], resolve(node.Content[i+1])
		entry := Entry{Key: key.Value}
		if value.Kind == yaml.MappingNode {
			entry.Children = fromMapping(value)
		} else {
			entry.Value = inline(value)
		}
		tree.Entries = append(tree.Entries, entry)
	}
	return tree
}

func inline(node *yaml.Node) string {
	node = resolve(node)
	switch node.Kind {
	case yaml.SequenceNode:
		items := make([]string, len(node.Content))
		for i, item := range node.Content {
			items[i] = inline(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case yaml.MappingNode:
		pairs := make([]string, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			pairs = append(pairs, node.Content[i].Value+": "+inline(node.Content[i+1]))
		}
		return "{" + strings.Join(pairs, ", ") + "}"
	default:
		return node.Value
	}
}

func resolve(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}
