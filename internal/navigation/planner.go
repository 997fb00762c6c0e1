// Package navigation turns a path into the turn-by-turn steps a user confirms
// one at a time.
package navigation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/garyellow/campus-navigator/internal/campus"
	"github.com/garyellow/campus-navigator/internal/pathgraph"
)

// Step is one instruction plus the location that marks it done.
type Step struct {
	Index       int             `json:"index"`
	Instruction string          `json:"instruction"`
	Arrival     campus.Location `json:"arrival"`
}

// Plan emits one step per edge of p. A single-node path yields no steps,
// which callers report as "already there".
func Plan(p pathgraph.Path) []Step {
	if len(p.Nodes) < 2 {
		return nil
	}
	steps := make([]Step, 0, len(p.Nodes)-1)
	for i := 1; i < len(p.Nodes); i++ {
		instruction := "continue"
		if i-1 < len(p.Edges) && strings.TrimSpace(p.Edges[i-1].Instruction) != "" {
			instruction = strings.TrimSpace(p.Edges[i-1].Instruction)
		}
		steps = append(steps, Step{
			Index:       i - 1,
			Instruction: instruction,
			Arrival:     p.Nodes[i],
		})
	}
	return steps
}

// Describe renders a step for the user, e.g.
// "go straight to reach AB1_310 (step 1 of 2)".
func Describe(s Step, total int) string {
	return fmt.Sprintf("%s to reach %s (step %d of %d)", s.Instruction, s.Arrival.Label(), s.Index+1, total)
}

// Summary renders a one-line overview of p.
func Summary(p pathgraph.Path) string {
	hops := len(p.Nodes) - 1
	if hops <= 0 {
		return fmt.Sprintf("You are already at %s.", p.Origin().Label())
	}
	noun := "steps"
	if hops == 1 {
		noun = "step"
	}
	return fmt.Sprintf("Route from %s to %s: %d %s, distance %s.",
		p.Origin().Label(), p.Destination().Label(), hops, noun, formatCost(p.Cost))
}

func formatCost(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}
