// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/comalice/hybridx/internal/primitives"
)

// Period is the control period of every generated definition.
const Period = 0.001

func joint(name string) primitives.ControllerConfig {
	return primitives.ControllerConfig{
		Name: name, Type: "interpolated", Category: primitives.CategoryJoint,
		Goal: true, Kp: 100, Kv: 20,
	}
}

// GenChainConfig creates a chain of n milestones start, m1, ..., goal in dof
// coordinates, one unit apart along the first coordinate.
func GenChainConfig(n, dof int) *primitives.AutomatonConfig {
	if n < 2 {
		n = 2
	}
	cfg := &primitives.AutomatonConfig{
		Name:   fmt.Sprintf("chain_%d", n),
		Start:  "start",
		Period: Period,
	}
	names := make([]string, n)
	for i := range names {
		switch i {
		case 0:
			names[i] = "start"
		case n - 1:
			names[i] = "goal"
		default:
			names[i] = fmt.Sprintf("m%d", i)
		}
		target := make([]float64, dof)
		target[0] = float64(i)
		cfg.Milestones = append(cfg.Milestones, primitives.NewMilestoneConfig(names[i], target...))
	}
	for i := 1; i < n; i++ {
		b := primitives.NewBehaviourConfig(names[i-1], names[i], joint("joints"))
		b.UpdateAllowed = true
		cfg.Behaviours = append(cfg.Behaviours, b)
	}
	return cfg
}

// GenFanConfig creates a start milestone with width guarded edges to
// intermediate milestones, each leading on to the goal. Only the
// last intermediate edge is open.
func GenFanConfig(width, dof int) *primitives.AutomatonConfig {
	if width < 1 {
		width = 1
	}
	cfg := &primitives.AutomatonConfig{
		Name:   fmt.Sprintf("fan_%d", width),
		Start:  "start",
		Period: Period,
		Milestones: []*primitives.MilestoneConfig{
			primitives.NewMilestoneConfig("start", make([]float64, dof)...),
			primitives.NewMilestoneConfig("goal", ones(dof)...),
		},
	}
	for i := 0; i < width; i++ {
		name := fmt.Sprintf("via%d", i)
		target := make([]float64, dof)
		target[i%dof] = 0.5
		cfg.Milestones = append(cfg.Milestones, primitives.NewMilestoneConfig(name, target...))

		out := primitives.NewBehaviourConfig("start", name, joint("joints"))
		out.Weight = float64(i)
		threshold := 1.0
		if i == width-1 {
			threshold = -1
		}
		out.Switch = &primitives.SwitchConfig{Conditions: []primitives.ConditionConfig{
			{Type: primitives.ConditionSensor, Key: "force", Op: ">", Value: threshold},
		}}
		cfg.Behaviours = append(cfg.Behaviours, out,
			primitives.NewBehaviourConfig(name, "goal", joint("joints")))
	}
	return cfg
}

// GenDefinitionYAML marshals a chain of n milestones.
func GenDefinitionYAML(n, dof int) []byte {
	data, err := yaml.Marshal(GenChainConfig(n, dof))
	if err != nil {
		panic(err)
	}
	return data
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
