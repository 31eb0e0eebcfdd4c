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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyContent indicates the Text field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrMissingContentHash indicates a chunk was not tied to its source content.
	ErrMissingContentHash = errors.New("content hash cannot be empty")

	// ErrInvalidChunkIndex indicates a negative chunk position.
	ErrInvalidChunkIndex = errors.New("chunk index cannot be negative")

	// ErrInvalidMetadata indicates a metadata value that is neither a string nor a number.
	ErrInvalidMetadata = errors.New("metadata values must be strings or numbers")
)
