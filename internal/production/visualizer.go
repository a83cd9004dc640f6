package production

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/comalice/hybridx/internal/primitives"
)

// Visualizer renders automaton definitions.
type Visualizer interface {
	ExportDOT(config *primitives.AutomatonConfig, active Edge) string
	ExportJSON(config *primitives.AutomatonConfig) ([]byte, error)
}

// Edge identifies a behaviour by its endpoints. The zero Edge highlights
// nothing.
type Edge struct {
	From string
	To   string
}

// DefaultVisualizer is the Graphviz implementation of Visualizer.
type DefaultVisualizer struct{}

var _ Visualizer = (*DefaultVisualizer)(nil)

// ExportDOT generates Graphviz DOT source for the automaton. The start
// milestone is drawn bold, the goal milestone double-circled and the active
// edge in red.
func (v *DefaultVisualizer) ExportDOT(config *primitives.AutomatonConfig, active Edge) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph Automaton {
  rankdir=LR;
  node [shape=circle, fontsize=10];
  edge [fontsize=9];
`)

	for _, m := range config.Milestones {
		renderMilestone(&buf, m, config.Start, active)
	}
	for _, b := range config.Behaviours {
		renderBehaviour(&buf, b, active)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the definition to JSON.
func (v *DefaultVisualizer) ExportJSON(config *primitives.AutomatonConfig) ([]byte, error) {
	return json.MarshalIndent(config, "", "  ")
}

func renderMilestone(buf *bytes.Buffer, m *primitives.MilestoneConfig, start string, active Edge) {
	attrs := fmt.Sprintf(`label="%s\n%v"`, m.Name, m.Target)
	if m.Name == "goal" {
		attrs += " shape=doublecircle"
	}
	if m.Name == start {
		attrs += " penwidth=2"
	}
	if m.Name == active.To {
		attrs += " style=filled fillcolor=lightgreen"
	}
	fmt.Fprintf(buf, "  %q [%s];\n", m.Name, attrs)
}

func renderBehaviour(buf *bytes.Buffer, b *primitives.BehaviourConfig, active Edge) {
	label := fmt.Sprintf("w=%g", b.Weight)
	if b.MaxVelocity > 0 {
		label += fmt.Sprintf(" v=%g", b.MaxVelocity)
	}
	if b.Switch != nil && len(b.Switch.Conditions) > 0 {
		label += fmt.Sprintf(" [%s:%d]", switchPolicy(b.Switch), len(b.Switch.Conditions))
	}
	attrs := fmt.Sprintf("label=%q", label)
	if b.UpdateAllowed {
		attrs += " style=dashed"
	}
	if b.Parent == active.From && b.Child == active.To {
		attrs += " color=red penwidth=2"
	}
	fmt.Fprintf(buf, "  %q -> %q [%s];\n", b.Parent, b.Child, attrs)
}

func switchPolicy(s *primitives.SwitchConfig) string {
	if s.Policy == "" {
		return "all"
	}
	return s.Policy
}
