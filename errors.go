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

package engine

import "errors"

// ErrNotInitialized is returned by any API method that needs a loaded
// document when called before Init has completed successfully.
var ErrNotInitialized = errors.New("engine: not initialized")

// ErrUnknownOperation is returned when a caller names an operationId
// that Init's Operation Index has no record of.
var ErrUnknownOperation = errors.New("engine: unknown operation")
