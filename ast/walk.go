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

package ast

import "fmt"

// Inspect traverses the given pattern depth-first, calling fn for each node.
// If fn returns false, the node's children are skipped.
func Inspect(node PatternNode, fn func(PatternNode) bool) {
	if node == nil || !fn(node) {
		return
	}
	switch node := node.(type) {
	case *CutNode, *LiteralNode, *CallNode:
	case *BindNode:
		Inspect(node.Inner, fn)
	case *GroupNode:
		for _, alt := range node.Alternatives {
			for _, p := range alt {
				Inspect(p, fn)
			}
		}
	case *DelimitedNode:
		for _, p := range node.Patterns {
			Inspect(p, fn)
		}
	case *PostfixNode:
		Inspect(node.Inner, fn)
	case *SpanBindNode:
		Inspect(node.Inner, fn)
	case *RecoverNode:
		Inspect(node.Body, fn)
		Inspect(node.Sync, fn)
	case *PeekNode:
		Inspect(node.Inner, fn)
	case *NotNode:
		Inspect(node.Inner, fn)
	default:
		panic(fmt.Sprintf("ast: unknown pattern node %T", node))
	}
}
