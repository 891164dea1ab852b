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

import "github.com/bufbuild/grammarc/model"

// FindCut splits a sequence at its first top-level cut. The cut itself is in
// neither part. If there is no cut, ok is false and pre holds every item.
func FindCut(items []model.Pattern) (pre, post []model.Pattern, ok bool) {
	for i, item := range items {
		if _, isCut := item.(*model.Cut); isCut {
			return items[:i], items[i+1:], true
		}
	}
	return items, nil, false
}

// extraCuts returns every top-level cut in items after the first.
func extraCuts(items []model.Pattern) []*model.Cut {
	var cuts []*model.Cut
	for _, item := range items {
		if cut, ok := item.(*model.Cut); ok {
			cuts = append(cuts, cut)
		}
	}
	if len(cuts) < 2 {
		return nil
	}
	return cuts[1:]
}
