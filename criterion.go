package hybridx

import (
	"container/heap"
	"math"
)

// Query is the input of a DecisionCriterion.
type Query struct {
	// From is the milestone to look from: the start of a fresh automaton, a
	// converged milestone, or the parent of the running behaviour.
	From      *Milestone
	Automaton *Automaton
	// Changed is true when From was reached by convergence or hot-swap.
	Changed bool
	T       float64
	// Elapsed is the running behaviour's time since activation.
	Elapsed float64
	State   State
}

func (q Query) env() ConditionEnv {
	return ConditionEnv{T: q.T, Elapsed: q.Elapsed, State: q.State}
}

// DecisionCriterion picks the next behaviour. Returning nil means "keep the
// current behaviour". Implementations must not mutate the graph.
type DecisionCriterion interface {
	Next(q Query) *MotionBehaviour
}

// CriterionFunc adapts a function to DecisionCriterion.
type CriterionFunc func(q Query) *MotionBehaviour

func (f CriterionFunc) Next(q Query) *MotionBehaviour { return f(q) }

// LocalCriterion picks among the traversable edges leaving From the one with
// the highest weight, breaking ties by lowest ID.
type LocalCriterion struct{}

func (LocalCriterion) Next(q Query) *MotionBehaviour {
	if q.From == nil || q.Automaton == nil {
		return nil
	}
	env := q.env()
	var best *MotionBehaviour
	for _, b := range q.Automaton.outgoing[q.From] {
		if !b.sw.Traversable(env) {
			continue
		}
		if best == nil || b.weight > best.weight || (b.weight == best.weight && b.id < best.id) {
			best = b
		}
	}
	return best
}

// GoalDirectedCriterion follows the cheapest path to the goal milestone.
// Only the first edge of a path must be traversable. When the goal cannot be
// reached from From it behaves like LocalCriterion.
type GoalDirectedCriterion struct {
	// Cost returns the cost of an edge. Nil uses the edge weight, with
	// non-positive weights costing 1.
	Cost func(b *MotionBehaviour) float64
}

func (c GoalDirectedCriterion) cost(b *MotionBehaviour) float64 {
	if c.Cost != nil {
		return math.Max(c.Cost(b), 0)
	}
	if b.weight > 0 {
		return b.weight
	}
	return 1
}

func (c GoalDirectedCriterion) Next(q Query) *MotionBehaviour {
	if q.From == nil || q.Automaton == nil {
		return nil
	}
	goal := q.Automaton.Goal()
	if goal == nil {
		return LocalCriterion{}.Next(q)
	}
	dist := c.distancesTo(q.Automaton, goal)
	env := q.env()
	var best *MotionBehaviour
	bestCost := math.Inf(1)
	for _, b := range q.Automaton.outgoing[q.From] {
		d, ok := dist[b.child]
		if !ok || !b.sw.Traversable(env) {
			continue
		}
		total := c.cost(b) + d
		if total < bestCost || (total == bestCost && best != nil && b.id < best.id) {
			best, bestCost = b, total
		}
	}
	if best == nil {
		return LocalCriterion{}.Next(q)
	}
	return best
}

// distancesTo runs Dijkstra over reversed edges from goal.
func (c GoalDirectedCriterion) distancesTo(a *Automaton, goal *Milestone) map[*Milestone]float64 {
	incoming := make(map[*Milestone][]*MotionBehaviour, len(a.milestones))
	for _, b := range a.behaviours {
		incoming[b.child] = append(incoming[b.child], b)
	}
	dist := map[*Milestone]float64{goal: 0}
	pq := &milestoneQueue{{m: goal}}
	for pq.Len() > 0 {
		it := heap.Pop(pq).(milestoneItem)
		if it.d > dist[it.m] {
			continue
		}
		for _, b := range incoming[it.m] {
			nd := it.d + c.cost(b)
			if d, ok := dist[b.parent]; !ok || nd < d {
				dist[b.parent] = nd
				heap.Push(pq, milestoneItem{m: b.parent, d: nd})
			}
		}
	}
	return dist
}

type milestoneItem struct {
	m *Milestone
	d float64
}

type milestoneQueue []milestoneItem

func (q milestoneQueue) Len() int           { return len(q) }
func (q milestoneQueue) Less(i, j int) bool { return q[i].d < q[j].d }
func (q milestoneQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *milestoneQueue) Push(x any)        { *q = append(*q, x.(milestoneItem)) }
func (q *milestoneQueue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}
