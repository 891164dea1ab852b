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

// Package builtins describes the primitive matchers a code generation backend
// provides.
//
// A grammar may call any name in the backend's [Registry] without defining it
// as a rule. The registry records the Go type each builtin produces along with
// the capabilities the validator and analyzer need to know about: whether a
// span can be taken over its result and whether it can match empty input.
//
// [Portable] returns the minimum set every backend is expected to support.
// [Go] returns the full set implemented by the rt package.
package builtins
