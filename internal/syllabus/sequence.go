package syllabus

import (
	"sort"

	"pilotpredict/internal/data"
)

const (
	ReasonCycle   = "prerequisite cycle"
	ReasonUnknown = "unknown prerequisite"
)

// Sequence orders modules so prerequisites come first. It is an iterative
// depth-first search over module indices with edges prerequisite→dependent;
// roots and neighbours are visited in reverse declared-position order so that
// the reversed post-order keeps independent modules in their declared order.
// An edge into a module still on the stack closes a cycle: it is not followed
// and is reported as broken instead. Unknown prerequisite ids are reported too.
func Sequence(modules []data.SyllabusModuleConfig) (order []int, broken []data.BrokenPrerequisite) {
	n := len(modules)
	rank := make([]int, n)
	byPos := make([]int, n)
	for i := range byPos {
		byPos[i] = i
	}
	sort.SliceStable(byPos, func(a, b int) bool { return modules[byPos[a]].Position < modules[byPos[b]].Position })
	for r, i := range byPos {
		rank[i] = r
	}

	index := make(map[string]int, n)
	for i, m := range modules {
		index[m.ID] = i
	}
	adj := make([][]int, n)
	for i, m := range modules {
		seen := map[string]bool{}
		for _, pre := range m.Prerequisites {
			if seen[pre] {
				continue
			}
			seen[pre] = true
			j, ok := index[pre]
			if !ok {
				broken = append(broken, data.BrokenPrerequisite{ModuleID: m.ID, PrerequisiteID: pre, Reason: ReasonUnknown})
				continue
			}
			adj[j] = append(adj[j], i)
		}
	}
	for _, next := range adj {
		sort.Slice(next, func(a, b int) bool { return rank[next[a]] > rank[next[b]] })
	}

	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, n)
	type frame struct{ node, next int }
	post := make([]int, 0, n)
	for r := n - 1; r >= 0; r-- {
		root := byPos[r]
		if state[root] != unvisited {
			continue
		}
		stack := []frame{{node: root}}
		state[root] = active
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == len(adj[top.node]) {
				state[top.node] = done
				post = append(post, top.node)
				stack = stack[:len(stack)-1]
				continue
			}
			child := adj[top.node][top.next]
			top.next++
			switch state[child] {
			case unvisited:
				state[child] = active
				stack = append(stack, frame{node: child})
			case active:
				broken = append(broken, data.BrokenPrerequisite{ModuleID: modules[child].ID, PrerequisiteID: modules[top.node].ID, Reason: ReasonCycle})
			}
		}
	}

	order = make([]int, n)
	for i, v := range post {
		order[n-1-i] = v
	}
	return order, broken
}

// Satisfied is the fraction of known prerequisite edges whose prerequisite
// precedes its dependent in order. A syllabus without edges scores 1.
func Satisfied(modules []data.SyllabusModuleConfig, order []int) float64 {
	at := make(map[string]int, len(order))
	for pos, i := range order {
		at[modules[i].ID] = pos
	}
	total, ok := 0, 0
	for _, m := range modules {
		seen := map[string]bool{}
		for _, pre := range m.Prerequisites {
			p, known := at[pre]
			if !known || seen[pre] {
				continue
			}
			seen[pre] = true
			total++
			if p < at[m.ID] {
				ok++
			}
		}
	}
	if total == 0 {
		return 1
	}
	return float64(ok) / float64(total)
}
