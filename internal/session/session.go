// Package session executes a loaded export graph. It is a deliberately small
// engine: enough operations to serve the graphs found in legacy exports
// (constants, restored variables, elementwise arithmetic, matmul), executed
// synchronously on the CPU.
package session

import (
	"fmt"
	"strings"

	"github.com/born-ml/bundleshim/internal/metagraph"
	"github.com/born-ml/bundleshim/internal/tensor"
)

// Session holds a graph and its restored variable values and runs
// feed→fetch evaluations over it.
type Session struct {
	nodes map[string]*metagraph.NodeDef
	order []string // node names in graph order, for deterministic errors
	vars  map[string]*tensor.RawTensor
}

// New creates a session for the given graph.
func New(g *metagraph.GraphDef) (*Session, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is nil")
	}
	s := &Session{
		nodes: make(map[string]*metagraph.NodeDef, len(g.Nodes)),
		vars:  make(map[string]*tensor.RawTensor),
	}
	for i := range g.Nodes {
		node := &g.Nodes[i]
		if node.Name == "" {
			return nil, fmt.Errorf("graph node %d has no name", i)
		}
		if _, ok := s.nodes[node.Name]; ok {
			return nil, fmt.Errorf("duplicate node name: %s", node.Name)
		}
		s.nodes[node.Name] = node
		s.order = append(s.order, node.Name)
	}
	return s, nil
}

// HasVariables reports whether the graph contains variable nodes that need
// checkpoint restoration before the session can run.
func (s *Session) HasVariables() bool {
	for _, name := range s.order {
		if isVariableOp(s.nodes[name].Op) {
			return true
		}
	}
	return false
}

// Restore sets the values of variable nodes, keyed by node name. Values for
// names not present in the graph are ignored; legacy checkpoints routinely
// carry optimizer slots and other training leftovers.
func (s *Session) Restore(vars map[string]*tensor.RawTensor) error {
	for name, value := range vars {
		node, ok := s.nodes[name]
		if !ok {
			continue
		}
		if !isVariableOp(node.Op) {
			return fmt.Errorf("node %s is %s, not a variable", name, node.Op)
		}
		s.vars[name] = value
	}
	for _, name := range s.order {
		if isVariableOp(s.nodes[name].Op) {
			if _, ok := s.vars[name]; !ok {
				return fmt.Errorf("variable %s has no restored value", name)
			}
		}
	}
	return nil
}

// Run evaluates the fetches given the feeds. Feed keys and fetch names may
// use the "name:0" endpoint form; only single-output nodes are supported so
// the index is validated and dropped.
func (s *Session) Run(feeds map[string]*tensor.RawTensor, fetches []string) ([]*tensor.RawTensor, error) {
	memo := make(map[string]*tensor.RawTensor, len(s.nodes))
	for name, value := range feeds {
		canonical, err := canonicalName(name)
		if err != nil {
			return nil, fmt.Errorf("feed %q: %w", name, err)
		}
		if _, ok := s.nodes[canonical]; !ok {
			return nil, fmt.Errorf("feed %q: no such node", name)
		}
		memo[canonical] = value
	}

	results := make([]*tensor.RawTensor, 0, len(fetches))
	for _, fetch := range fetches {
		canonical, err := canonicalName(fetch)
		if err != nil {
			return nil, fmt.Errorf("fetch %q: %w", fetch, err)
		}
		value, err := s.eval(canonical, memo, make(map[string]bool))
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, fmt.Errorf("fetch %q: node produces no value", fetch)
		}
		results = append(results, value)
	}
	return results, nil
}

// RunTarget evaluates a node for its side effects only, discarding any value.
// Used for init ops.
func (s *Session) RunTarget(name string) error {
	canonical, err := canonicalName(name)
	if err != nil {
		return fmt.Errorf("target %q: %w", name, err)
	}
	_, err = s.eval(canonical, make(map[string]*tensor.RawTensor), make(map[string]bool))
	return err
}

// eval computes a node's value with memoization. visiting guards against
// graph cycles.
func (s *Session) eval(name string, memo map[string]*tensor.RawTensor, visiting map[string]bool) (*tensor.RawTensor, error) {
	if value, ok := memo[name]; ok {
		return value, nil
	}
	if visiting[name] {
		return nil, fmt.Errorf("graph cycle through node %s", name)
	}
	node, ok := s.nodes[name]
	if !ok {
		return nil, fmt.Errorf("no such node: %s", name)
	}
	visiting[name] = true
	defer delete(visiting, name)

	// Control dependencies are evaluated for effect; their values are dropped.
	var inputs []*tensor.RawTensor
	for _, in := range node.Inputs {
		if strings.HasPrefix(in, "^") {
			if _, err := s.eval(in[1:], memo, visiting); err != nil {
				return nil, err
			}
			continue
		}
		canonical, err := canonicalName(in)
		if err != nil {
			return nil, fmt.Errorf("node %s input %q: %w", name, in, err)
		}
		value, err := s.eval(canonical, memo, visiting)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, value)
	}

	value, err := s.apply(node, inputs)
	if err != nil {
		return nil, fmt.Errorf("node %s (%s): %w", node.Name, node.Op, err)
	}
	memo[name] = value
	return value, nil
}

// canonicalName strips a ":<index>" output suffix, validating that only
// output 0 is referenced.
func canonicalName(name string) (string, error) {
	base, index, ok := strings.Cut(name, ":")
	if !ok {
		return name, nil
	}
	if index != "0" {
		return "", fmt.Errorf("only output 0 is supported, got index %q", index)
	}
	return base, nil
}

func isVariableOp(op string) bool {
	return op == "Variable" || op == "VariableV2"
}
