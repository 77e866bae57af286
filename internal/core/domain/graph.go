// Package domain contains the core data model for the flow task graph.
package domain

import (
	"iter"
	"sort"

	"go.trai.ch/zerr"
)

// Graph is the dependency graph of one flow evaluation. It owns the tasks
// and edges for the lifetime of the evaluation.
type Graph struct {
	tasks          map[InternedString]Task
	executionOrder []InternedString
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		tasks: make(map[InternedString]Task),
	}
}

// AddTask adds a task to the graph.
// It returns an error if a task with the same name already exists.
func (g *Graph) AddTask(t *Task) error {
	if _, exists := g.tasks[t.Name]; exists {
		return zerr.With(ErrTaskAlreadyExists, "task_name", t.Name.String())
	}
	g.tasks[t.Name] = *t
	return nil
}

// TaskCount returns the number of tasks in the graph.
func (g *Graph) TaskCount() int {
	return len(g.tasks)
}

// GetTask retrieves a task by name.
func (g *Graph) GetTask(name InternedString) (Task, error) {
	t, ok := g.tasks[name]
	if !ok {
		return Task{}, zerr.With(ErrTaskNotFound, "task_name", name.String())
	}
	return t, nil
}

// Validate checks the graph for unknown dependencies and cycles using a
// depth-first traversal, and populates the execution order on success.
// Roots are visited in name order so two runs over the same graph agree on
// the relative order of every dependent pair.
func (g *Graph) Validate() error {
	g.executionOrder = make([]InternedString, 0, len(g.tasks))
	visited := make(map[InternedString]int) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		visited[u] = 1
		path = append(path, u)

		task, exists := g.tasks[u]
		if !exists {
			return zerr.With(ErrMissingDependency, "dependency", u.String())
		}

		for _, dep := range task.Needs {
			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	for _, name := range g.sortedNames() {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	return nil
}

func (g *Graph) sortedNames() []InternedString {
	names := make([]InternedString, 0, len(g.tasks))
	for name := range g.tasks {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].String() < names[j].String() })
	return names
}

// buildCycleError constructs an error naming every task on the cycle in order.
func (g *Graph) buildCycleError(path []InternedString, dep InternedString) error {
	cyclePath := ""
	startIdx := 0
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += path[i].String() + " -> "
	}
	cyclePath += dep.String()
	return zerr.With(ErrCycleDetected, "cycle", cyclePath)
}

// Typecheck verifies every edge of the graph against the registry: the
// producer's output type must be compatible with the type the consumer's
// kind expects for that slot. It runs before any execution.
func (g *Graph) Typecheck(reg *Registry) error {
	for _, name := range g.sortedNames() {
		consumer := g.tasks[name]
		for _, dep := range consumer.Needs {
			producer, ok := g.tasks[dep]
			if !ok {
				return zerr.With(ErrMissingDependency, "dependency", dep.String())
			}
			produced := producer.OutputType()
			expected := expectedSlotType(consumer.Kind, produced)
			if !reg.Compatible(produced, expected) {
				err := zerr.With(ErrTypeMismatch, "consumer", consumer.Name.String())
				err = zerr.With(err, "producer", producer.Name.String())
				err = zerr.With(err, "expected", string(expected))
				return zerr.With(err, "produced", string(produced))
			}
		}
	}
	return nil
}

// expectedSlotType returns the type a consumer kind requires for an incoming
// fileset of the given produced type. Include filesets are auxiliary inputs
// to every tool-invoking kind; liberty libraries are only read by generic
// synthesis and user scripts; everything else must satisfy the generic RTL
// slot.
func expectedSlotType(kind TaskKind, produced FileType) FileType {
	if kind == KindFileSet {
		// Leaf tasks have no input slots at all.
		return ""
	}
	if produced.IsInclude() {
		return produced
	}
	if produced == LibertyLib {
		if kind == KindSynth || kind == KindScript {
			return LibertyLib
		}
		return RTLSource
	}
	return RTLSource
}

// Walk returns an iterator that yields tasks in execution order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.tasks[name]) {
				return
			}
		}
	}
}

// Dependents returns the names of tasks that directly need the given task.
func (g *Graph) Dependents(name InternedString) []InternedString {
	var dependents []InternedString
	for _, candidate := range g.sortedNames() {
		task := g.tasks[candidate]
		for _, dep := range task.Needs {
			if dep == name {
				dependents = append(dependents, candidate)
				break
			}
		}
	}
	return dependents
}

// Closure returns the target tasks plus every transitive dependency, as a
// set. Target names that are not in the graph produce an error.
func (g *Graph) Closure(targets []InternedString) (map[InternedString]bool, error) {
	closure := make(map[InternedString]bool)
	var add func(name InternedString) error
	add = func(name InternedString) error {
		if closure[name] {
			return nil
		}
		task, ok := g.tasks[name]
		if !ok {
			return zerr.With(ErrTaskNotFound, "task_name", name.String())
		}
		closure[name] = true
		for _, dep := range task.Needs {
			if err := add(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, target := range targets {
		if err := add(target); err != nil {
			return nil, err
		}
	}
	return closure, nil
}
