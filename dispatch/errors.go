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

package dispatch

import "errors"

// ErrNotInitialized is returned by HandleRequest when the underlying
// API hasn't completed Init.
var ErrNotInitialized = errors.New("dispatch: api not initialized")

// ErrUnknownHandlerID is returned by Register in strict mode when id
// names neither a known operationId nor a well-known handler name.
var ErrUnknownHandlerID = errors.New("dispatch: unknown handler id")

// ErrUnknownSecurityScheme is returned by RegisterSecurityHandler in
// strict mode when name isn't declared under components.securitySchemes.
var ErrUnknownSecurityScheme = errors.New("dispatch: unknown security scheme")
