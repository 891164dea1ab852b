// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package toposort provides a generic topological sort implementation.
package toposort

import (
	"fmt"
	"iter"
	"strings"
)

const (
	unsorted byte = iota
	walking
	sorted
)

// CycleError is returned by [Sort] when the graph is not acyclic.
type CycleError[Key comparable] struct {
	// Cycle lists the keys along the cycle. The first key is repeated at the
	// end.
	Cycle []Key
}

// Error implements [error].
func (e *CycleError[Key]) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, k := range e.Cycle {
		parts[i] = fmt.Sprint(k)
	}
	return "cycle detected: " + strings.Join(parts, " -> ")
}

// Sort sorts a DAG topologically, so that every node comes after its
// children.
//
// Roots are the nodes whose dependencies we are querying. key returns a
// comparable key for each node. dag contains the data of the DAG being sorted,
// and returns the children of a node. If a cycle is reachable from the roots,
// Sort returns a [*CycleError].
func Sort[Node any, Key comparable](
	roots []Node,
	key func(Node) Key,
	dag func(Node) iter.Seq[Node],
) ([]Node, error) {
	s := Sorter[Node, Key]{Key: key}
	return s.Sort(roots, dag)
}

// Sorter is reusable scratch space for a particular stencil of [Sort], which
// needs to allocate memory for book-keeping. This struct allows amortizing that
// cost. A Sorter must not be used concurrently.
type Sorter[Node any, Key comparable] struct {
	// A function to extract a unique key from each node, for marking.
	Key func(Node) Key

	state map[Key]byte
	stack []Node
}

// Sort is like [Sort], but re-uses allocated resources stored in s.
func (s *Sorter[Node, Key]) Sort(
	roots []Node,
	dag func(Node) iter.Seq[Node],
) ([]Node, error) {
	if s.state == nil {
		s.state = make(map[Key]byte)
	}
	defer func() {
		clear(s.state)
		clear(s.stack)
		s.stack = s.stack[:0]
	}()

	var out []Node
	for _, root := range roots {
		if err := s.push(root); err != nil {
			return nil, err
		}
		// This algorithm is DFS that has been tail-call-optimized into a loop.
		// Each node is visited twice in the loop: once to add its children to
		// the stack, and once to pop it and add it to the output. The state
		// tracks whether this node has been visisted and if its the first
		// or second visit through the loop.
		for len(s.stack) > 0 {
			node := s.stack[len(s.stack)-1]
			k := s.Key(node)
			state := s.state[k]

			if state == unsorted {
				s.state[k] = walking
				for child := range dag(node) {
					if err := s.push(child); err != nil {
						return nil, err
					}
				}
				continue
			}

			s.stack = s.stack[:len(s.stack)-1]
			if state != sorted {
				out = append(out, node)
				s.state[k] = sorted
			}
		}
	}
	return out, nil
}

func (s *Sorter[Node, Key]) push(v Node) error {
	k := s.Key(v)
	switch s.state[k] {
	case unsorted:
		s.stack = append(s.stack, v)

	case walking:
		// The nodes being walked are exactly the path from the root to the
		// node whose children are being pushed.
		prev := len(s.stack) - 1
		for s.Key(s.stack[prev]) != k {
			prev--
		}
		var cycle []Key
		for _, n := range s.stack[prev:] {
			nk := s.Key(n)
			if s.state[nk] == walking && (len(cycle) == 0 || cycle[len(cycle)-1] != nk) {
				cycle = append(cycle, nk)
			}
		}
		return &CycleError[Key]{Cycle: append(cycle, k)}
	}
	return nil
}
