// Package intent turns free-text layout commands into structured
// directives. Resolution is a pure function over the command text and
// the graph schema: it never fails, and ambiguous or empty input
// degrades to the generic force-grid strategy.
package intent

import (
	"strings"

	"github.com/voxgraph/layout-engine/pkg/model"
)

// Keyword tables for the priority-ordered classifier. Checked in
// declaration order; the first strategy with a keyword hit wins.
var classifierOrder = []struct {
	strategy Strategy
	keywords []string
}{
	{StrategyGrouping, []string{"group", "cluster", "bunch"}},
	{StrategyHierarchical, []string{"hierarch", "tree", "layer", "level", "top-down"}},
	{StrategyCircular, []string{"circle", "circular", "ring", "radial"}},
	{StrategyPhysics, []string{"physics", "simulat", "spring", "organic", "float"}},
}

// Prepositions marking the following type mention as the grouping
// target rather than a source.
var targetPrepositions = map[string]bool{
	"around": true,
	"to":     true,
	"at":     true,
	"by":     true,
	"with":   true,
}

// Filler words skipped when scanning backwards for a preposition.
var fillerWords = map[string]bool{
	"the": true, "a": true, "an": true,
	"their": true, "its": true, "his": true, "her": true,
	"all": true, "every": true, "each": true, "respective": true,
}

// Classify maps command text to a strategy, or reports no match. It is
// exposed separately from Resolve so the keyword heuristic can be
// tested directly; Resolve supplies the force-grid fallback.
func Classify(text string) (Strategy, bool) {
	lower := strings.ToLower(text)
	for _, entry := range classifierOrder {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.strategy, true
			}
		}
	}
	return "", false
}

// Resolve turns free text and a schema into a layout directive.
// It never returns an error: unrecognized text falls back to the
// force-grid strategy, and a grouping command without a resolvable
// type pair degrades to group-by-node-type downstream.
func Resolve(text string, schema *model.Schema) Directive {
	d := Directive{
		Strategy:   StrategyForceGrid,
		Separation: defaultSeparation,
		Strength:   1.0,
		Spacing:    1.0,
	}

	if strategy, ok := Classify(text); ok {
		d.Strategy = strategy
	}

	lower := strings.ToLower(text)
	d.Spacing = spacingMultiplier(lower)
	d.Strength = strengthMultiplier(lower)

	if schema == nil {
		return d
	}

	if d.Strategy == StrategyGrouping {
		d.SourceType, d.TargetType = resolveTypePair(lower, schema.NodeTypes)
		d.Relationship = matchRelationship(lower, schema.RelationshipTypes)
	}

	return d
}

const defaultSeparation = 5.0

func spacingMultiplier(lower string) float64 {
	switch {
	case containsAny(lower, "tight", "compact", "dense"):
		return 0.5
	case containsAny(lower, "spread", "loose", "sparse"):
		return 2.0
	}
	return 1.0
}

func strengthMultiplier(lower string) float64 {
	switch {
	case containsAny(lower, "strong", "firm"):
		return 2.0
	case containsAny(lower, "gentle", "weak", "soft"):
		return 0.5
	}
	return 1.0
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// resolveTypePair scans the command for schema type mentions and splits
// them into a source and a target using the preposition heuristic: a
// type mentioned after around/to/at/by/with is the target, any other
// mention is a source. When only a target is named, the first remaining
// schema type is assumed to be the source, so commands like "group
// employees around their companies" still yield a full pair.
func resolveTypePair(lower string, nodeTypes []string) (source, target string) {
	tokens := tokenize(lower)

	for _, nodeType := range nodeTypes {
		idx := mentionIndex(tokens, nodeType)
		if idx < 0 {
			continue
		}
		if precededByTargetPreposition(tokens, idx) {
			if target == "" {
				target = nodeType
			}
		} else if source == "" {
			source = nodeType
		}
	}

	if target != "" && source == "" {
		for _, nodeType := range nodeTypes {
			if nodeType != target {
				source = nodeType
				break
			}
		}
	}
	if target == "" {
		// No anchor to group around; the pair stays unresolved and
		// placement degrades to group-by-node-type.
		source = ""
	}
	return source, target
}

// mentionIndex returns the token index where the type (or one of its
// plural variants) is mentioned, or -1.
func mentionIndex(tokens []string, nodeType string) int {
	variants := typeVariants(nodeType)
	for i, tok := range tokens {
		if variants[tok] {
			return i
		}
	}
	return -1
}

// precededByTargetPreposition scans backwards from the mention, skipping
// filler words, and reports whether the nearest significant word is one
// of the target prepositions.
func precededByTargetPreposition(tokens []string, idx int) bool {
	for j := idx - 1; j >= 0; j-- {
		if fillerWords[tokens[j]] {
			continue
		}
		return targetPrepositions[tokens[j]]
	}
	return false
}

// matchRelationship finds the first schema relationship name mentioned
// verbatim (case-insensitively) in the command.
func matchRelationship(lower string, relationshipTypes []string) string {
	for _, rel := range relationshipTypes {
		if rel != "" && strings.Contains(lower, strings.ToLower(rel)) {
			return rel
		}
	}
	return ""
}

// Irregular plurals that the suffix rules below cannot produce.
var irregularPlurals = map[string]string{
	"person": "people",
	"child":  "children",
}

// typeVariants builds the set of token spellings accepted as a mention
// of the given type name: the lowercased name plus simple plural forms.
func typeVariants(nodeType string) map[string]bool {
	lower := strings.ToLower(nodeType)
	variants := map[string]bool{lower: true}

	if plural, ok := irregularPlurals[lower]; ok {
		variants[plural] = true
	}
	switch {
	case strings.HasSuffix(lower, "y"):
		variants[strings.TrimSuffix(lower, "y")+"ies"] = true
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "z"), strings.HasSuffix(lower, "ch"),
		strings.HasSuffix(lower, "sh"):
		variants[lower+"es"] = true
	default:
		variants[lower+"s"] = true
	}
	return variants
}

// tokenize splits text into lowercase words, stripping punctuation.
func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '-'
	})
}
