package retrieval

import (
	"strings"

	"retire-rag/internal/facts"
)

const NoRulesFound = "No specific rules found in structured data. Please check the contextual information."

type factMatch struct {
	path  string
	value string
	lines []string
}

// SearchFacts keyword-matches the query against fact keys. A key matches when
// any whitespace token of the query is a substring of it. Matches are reported
// in pre-order; nested subtrees are rendered below their path.
func SearchFacts(query string, tree *facts.Tree) string {
	terms := strings.Fields(strings.ToLower(query))
	matches := searchTree(tree, "", terms)
	if len(matches) == 0 {
		return NoRulesFound
	}

	var b strings.Builder
	b.WriteString("Relevant retirement rules and facts:\n\n")
	for _, m := range matches {
		if m.lines == nil {
			b.WriteString("• " + m.path + ": " + m.value + "\n")
			continue
		}
		b.WriteString("• " + m.path + ":\n")
		for _, line := range m.lines {
			b.WriteString("  - " + line + "\n")
		}
	}
	return b.String()
}

func searchTree(tree *facts.Tree, path string, terms []string) []factMatch {
	if tree == nil || len(terms) == 0 {
		return nil
	}
	var out []factMatch
	for _, e := range tree.Entries {
		key := strings.ToLower(facts.HumanKey(e.Key))
		current := key
		if path != "" {
			current = path + "." + key
		}

		if containsAny(key, terms) {
			if e.IsLeaf() {
				out = append(out, factMatch{path: current, value: e.Value})
			} else {
				out = append(out, factMatch{path: current, lines: renderSubtree(e.Children)})
			}
		}
		if !e.IsLeaf() {
			out = append(out, searchTree(e.Children, current, terms)...)
		}
	}
	return out
}

func renderSubtree(tree *facts.Tree) []string {
	lines := []string{}
	for _, e := range tree.Entries {
		key := facts.HumanKey(e.Key)
		if e.IsLeaf() {
			lines = append(lines, key+": "+e.Value)
			continue
		}
		lines = append(lines, key+":")
		for _, child := range renderSubtree(e.Children) {
			lines = append(lines, "  "+child)
		}
	}
	return lines
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
