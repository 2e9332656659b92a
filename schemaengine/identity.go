// Copyright 2025 Nguyen Nhat Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package schemaengine

import "reflect"

// mapIdentity and sliceIdentity return the address of a map's/slice's
// backing storage so BreakCycles can tell "the same object, visited
// again" apart from "an equal-looking object allocated twice". Go
// gives no direct way to compare map identity short of reflection.
func mapIdentity(m map[string]any) uintptr {
	return reflect.ValueOf(m).Pointer()
}

func sliceIdentity(s []any) uintptr {
	return reflect.ValueOf(s).Pointer()
}
