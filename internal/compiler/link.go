package compiler

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/xacc/internal/ir"
)

var (
	// ErrCallCycle is returned when circuits call each other recursively.
	ErrCallCycle = errors.New("recursive circuit call")

	// ErrUnknownCall is returned when a call names no known circuit.
	ErrUnknownCall = errors.New("call to unknown circuit")
)

// CycleError reports a recursive call chain, e.g. ["a", "b", "a"].
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCallCycle, strings.Join(e.Path, " → "))
}

func (e *CycleError) Unwrap() error { return ErrCallCycle }

// CallError reports a call whose target does not exist.
type CallError struct {
	Circuit string
	Target  string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("circuit %s: %v %q", e.Circuit, ErrUnknownCall, e.Target)
}

func (e *CallError) Unwrap() error { return ErrUnknownCall }

// callGraph maps circuit name → circuits it calls.
type callGraph map[string][]string

// Link resolves every call placeholder in circuits, in place, by a copy
// of the named circuit. Calls are resolved transitively so a linked
// circuit holds no placeholders. Link fails without modifying anything
// when a call target is unknown or the calls form a cycle.
func Link(circuits []*ir.Composite) error {
	byName := make(map[string]*ir.Composite, len(circuits))
	for _, c := range circuits {
		byName[c.Name()] = c
	}

	graph := buildCallGraph(circuits)
	for _, c := range circuits {
		for _, target := range graph[c.Name()] {
			if _, ok := byName[target]; !ok {
				return &CallError{Circuit: c.Name(), Target: target}
			}
		}
	}
	if cycles := findCycles(graph); len(cycles) > 0 {
		return &CycleError{Path: cycles[0]}
	}

	// Acyclic: resolving callees first means each copy is already linked.
	linked := make(map[string]bool, len(circuits))
	var resolve func(c *ir.Composite)
	resolve = func(c *ir.Composite) {
		if linked[c.Name()] {
			return
		}
		linked[c.Name()] = true
		for _, target := range graph[c.Name()] {
			resolve(byName[target])
		}
		replaceCalls(c, byName)
	}
	for _, c := range circuits {
		resolve(c)
	}
	return nil
}

// replaceCalls swaps placeholders anywhere under c for copies of their
// targets. The placeholder's enabled state carries over to the copy.
func replaceCalls(c *ir.Composite, byName map[string]*ir.Composite) {
	for i, child := range c.Instructions() {
		sub := ir.AsComposite(child)
		if sub == nil {
			continue
		}
		if sub.Tag() != TagCall {
			replaceCalls(sub, byName)
			continue
		}
		cp := byName[sub.Name()].CloneComposite()
		if !sub.IsEnabled() {
			cp.Disable()
		}
		// Index is in range and the copy is fresh, so this cannot fail.
		_ = c.ReplaceInstruction(i, cp)
	}
}

// buildCallGraph collects, per circuit, the distinct call targets in
// first-seen order. Every circuit is a node even without calls.
func buildCallGraph(circuits []*ir.Composite) callGraph {
	graph := make(callGraph, len(circuits))
	for _, c := range circuits {
		targets := []string{}
		for inst := range ir.All(c) {
			sub := ir.AsComposite(inst)
			if sub == nil || sub.Tag() != TagCall {
				continue
			}
			if !slices.Contains(targets, sub.Name()) {
				targets = append(targets, sub.Name())
			}
		}
		graph[c.Name()] = targets
	}
	return graph
}

// findCycles returns a call path for every strongly connected component
// that is a cycle, ordered by the first circuit name in each path.
func findCycles(graph callGraph) [][]string {
	var cycles [][]string
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || slices.Contains(graph[scc[0]], scc[0]) {
			cycles = append(cycles, cyclePath(scc, graph))
		}
	}
	slices.SortFunc(cycles, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
	return cycles
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so the result is deterministic.
func tarjanSCC(graph callGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cyclePath walks edges inside scc from its smallest member until it
// returns to the start.
func cyclePath(scc []string, graph callGraph) []string {
	start := slices.Min(scc)
	if len(scc) == 1 {
		return []string{start, start}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	path := []string{start}
	visited := map[string]bool{}
	current := start
	for {
		visited[current] = true
		next := ""
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
