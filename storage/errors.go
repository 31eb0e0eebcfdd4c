// Copyright 2025 Poiesic Systems
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

package storage

import "errors"

var (
	// ErrNotFound is returned when no chunk has the requested ID.
	ErrNotFound = errors.New("chunk not found")

	// ErrStorageClosed is returned by writes after the backend was closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery is returned for a similarity query with a non-positive limit.
	ErrInvalidQuery = errors.New("query limit must be positive")

	// ErrTruncatedData is returned when a stored chunk declares more
	// metadata entries or vector components than its bytes can hold.
	ErrTruncatedData = errors.New("stored chunk is truncated")
)
