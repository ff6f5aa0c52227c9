package intent

// Strategy identifies which placement algorithm a directive selects.
type Strategy string

const (
	StrategyGrouping     Strategy = "grouping"
	StrategyHierarchical Strategy = "hierarchical"
	StrategyCircular     Strategy = "circular"
	StrategyForceGrid    Strategy = "force-grid"
	StrategyPhysics      Strategy = "physics"
)

// Directive is the resolved description of which placement algorithm to
// run and with what parameters. It is always usable as-is: unset type
// fields degrade to type-grouping, and the zero multipliers are
// normalized by Resolve.
type Directive struct {
	Strategy     Strategy `json:"strategy"`
	SourceType   string   `json:"sourceType,omitempty"`
	TargetType   string   `json:"targetType,omitempty"`
	Relationship string   `json:"relationship,omitempty"` // edge type filter, verbatim from schema
	Separation   float64  `json:"separation"`             // base spacing between nodes
	Strength     float64  `json:"strength"`               // physics force scale
	Spacing      float64  `json:"spacing"`                // grid spacing multiplier (tight/spread)
}

// HasPair reports whether the directive names an explicit source/target
// type pair for group-around-targets placement.
func (d Directive) HasPair() bool {
	return d.SourceType != "" && d.TargetType != ""
}
