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

package interp

import "github.com/bufbuild/grammarc/rt"

// builtinFuncs maps the runtime function name of each builtin to its
// implementation.
var builtinFuncs = map[string]rt.Rule[any]{
	"Identifier":    rt.Erase(rt.Identifier),
	"String":        rt.Erase(rt.String),
	"Char":          rt.Erase(rt.Char),
	"Bool":          rt.Erase(rt.Bool),
	"Integer":       rt.Erase(rt.Integer),
	"Float":         rt.Erase(rt.Float),
	"I8":            rt.Erase(rt.I8),
	"I16":           rt.Erase(rt.I16),
	"I32":           rt.Erase(rt.I32),
	"I64":           rt.Erase(rt.I64),
	"U8":            rt.Erase(rt.U8),
	"U16":           rt.Erase(rt.U16),
	"U32":           rt.Erase(rt.U32),
	"U64":           rt.Erase(rt.U64),
	"F32":           rt.Erase(rt.F32),
	"F64":           rt.Erase(rt.F64),
	"HexLiteral":    rt.Erase(rt.HexLiteral),
	"OctLiteral":    rt.Erase(rt.OctLiteral),
	"BinLiteral":    rt.Erase(rt.BinLiteral),
	"SpannedInt":    rt.Erase(rt.SpannedInt),
	"SpannedFloat":  rt.Erase(rt.SpannedFloat),
	"SpannedBool":   rt.Erase(rt.SpannedBool),
	"SpannedChar":   rt.Erase(rt.SpannedChar),
	"SpannedString": rt.Erase(rt.SpannedString),
	"Alpha":         rt.Erase(rt.Alpha),
	"Digit":         rt.Erase(rt.Digit),
	"Alphanumeric":  rt.Erase(rt.Alphanumeric),
	"HexDigit":      rt.Erase(rt.HexDigit),
	"OctDigit":      rt.Erase(rt.OctDigit),
	"LineEnding":    rt.Erase(rt.LineEnding),
	"Empty":         rt.Erase(rt.Empty),
	"Multispace0":   rt.Erase(rt.Multispace0),
	"EOF":           rt.Erase(rt.EOF),
	"Whitespace":    rt.Erase(rt.Whitespace),
}
