package intent

import (
	"testing"

	"github.com/voxgraph/layout-engine/pkg/model"
)

var testSchema = &model.Schema{
	NodeTypes:         []string{"Person", "Company", "Project"},
	RelationshipTypes: []string{"WorksAt", "Owns"},
}

func TestClassify_PriorityOrder(t *testing.T) {
	cases := []struct {
		text string
		want Strategy
	}{
		{"group employees around their companies", StrategyGrouping},
		{"show me the hierarchy", StrategyHierarchical},
		{"arrange everything in a circle", StrategyCircular},
		{"run the physics simulation", StrategyPhysics},
		// Grouping wins over circular when both cues are present.
		{"cluster the nodes into a ring", StrategyGrouping},
	}

	for _, tc := range cases {
		got, ok := Classify(tc.text)
		if !ok {
			t.Errorf("Classify(%q) reported no match, want %s", tc.text, tc.want)
			continue
		}
		if got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestClassify_NoMatch(t *testing.T) {
	if got, ok := Classify("just show the data"); ok {
		t.Errorf("Expected no match, got %s", got)
	}
}

func TestResolve_FallsBackToForceGrid(t *testing.T) {
	d := Resolve("just show the data", testSchema)
	if d.Strategy != StrategyForceGrid {
		t.Errorf("Expected force-grid fallback, got %s", d.Strategy)
	}
	if d.Spacing != 1.0 || d.Strength != 1.0 {
		t.Errorf("Expected neutral multipliers, got spacing=%v strength=%v", d.Spacing, d.Strength)
	}
}

func TestResolve_GroupingWithPrepositionTarget(t *testing.T) {
	d := Resolve("group employees around their companies", testSchema)

	if d.Strategy != StrategyGrouping {
		t.Fatalf("Expected grouping, got %s", d.Strategy)
	}
	if d.TargetType != "Company" {
		t.Errorf("Expected target Company, got %q", d.TargetType)
	}
	// No source type is named; the remaining schema type is assumed.
	if d.SourceType != "Person" {
		t.Errorf("Expected inferred source Person, got %q", d.SourceType)
	}
}

func TestResolve_ExplicitSourceAndTarget(t *testing.T) {
	d := Resolve("cluster people by company with WorksAt", testSchema)

	if d.SourceType != "Person" {
		t.Errorf("Expected source Person, got %q", d.SourceType)
	}
	if d.TargetType != "Company" {
		t.Errorf("Expected target Company, got %q", d.TargetType)
	}
	if d.Relationship != "WorksAt" {
		t.Errorf("Expected relationship WorksAt, got %q", d.Relationship)
	}
}

func TestResolve_NoPairDegradesToTypeGrouping(t *testing.T) {
	// A grouping command with no recognizable type mention keeps the
	// grouping strategy but leaves the pair unresolved.
	d := Resolve("group everything nicely", testSchema)

	if d.Strategy != StrategyGrouping {
		t.Fatalf("Expected grouping, got %s", d.Strategy)
	}
	if d.HasPair() {
		t.Errorf("Expected unresolved pair, got %s -> %s", d.SourceType, d.TargetType)
	}
}

func TestResolve_SpacingKeywords(t *testing.T) {
	if d := Resolve("tight grid please", testSchema); d.Spacing != 0.5 {
		t.Errorf("Expected tight spacing 0.5, got %v", d.Spacing)
	}
	if d := Resolve("spread them out", testSchema); d.Spacing != 2.0 {
		t.Errorf("Expected spread spacing 2.0, got %v", d.Spacing)
	}
}

func TestResolve_NilSchema(t *testing.T) {
	d := Resolve("group everything", nil)
	if d.Strategy != StrategyGrouping {
		t.Errorf("Expected grouping, got %s", d.Strategy)
	}
	if d.HasPair() {
		t.Errorf("Expected no pair without a schema")
	}
}

func TestResolve_PluralVariants(t *testing.T) {
	schema := &model.Schema{NodeTypes: []string{"Company", "Person"}}

	d := Resolve("group persons around companies", schema)
	if d.SourceType != "Person" || d.TargetType != "Company" {
		t.Errorf("Expected Person -> Company, got %q -> %q", d.SourceType, d.TargetType)
	}

	d = Resolve("group people around companies", schema)
	if d.SourceType != "Person" {
		t.Errorf("Expected irregular plural to match Person, got %q", d.SourceType)
	}
}
