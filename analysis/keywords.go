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

package analysis

import (
	"unicode"
	"unicode/utf8"

	"github.com/tidwall/btree"

	"github.com/bufbuild/grammarc/model"
)

// Keywords returns the identifier-like literal pieces used anywhere in g's
// own rules. Inherited rules contribute to their own grammar's set.
func Keywords(g *model.Grammar) *btree.Set[string] {
	var set btree.Set[string]
	for _, r := range g.Rules {
		for _, v := range r.Variants {
			model.Walk(v.Patterns, func(p model.Pattern) bool {
				if lit, ok := p.(*model.Literal); ok {
					for _, piece := range lit.Pieces {
						if isKeywordPiece(piece) {
							set.Insert(piece)
						}
					}
				}
				return true
			})
		}
	}
	return &set
}

func isKeywordPiece(piece string) bool {
	if piece == "_" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(piece)
	return r == '_' || unicode.IsLetter(r)
}
