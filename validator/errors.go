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

package validator

import "errors"

// errUnknownSetMatchType is a programmer error: the caller passed a
// SetMatchType value the engine doesn't recognize.
var errUnknownSetMatchType = errors.New("validator: unknown SetMatchType")

// ErrUnknownOperation names the case where no operation could be
// resolved for a request/operationId. No function in this package
// returns it: Compiled.ValidateRequest takes the operation directly.
var ErrUnknownOperation = errors.New("validator: unknown operation")
