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

// Package storage defines how accepted chunks are persisted and searched.
//
// A chunk is one slice of an ingested item: its text, the hash of the whole
// item it came from, its position, flattened metadata and a normalized
// embedding. ChunkRepository keeps them addressable by ID and by content
// hash, which is what duplicate detection and re-embedding rely on.
//
// storage/badger is the only implementation. Chunks are encoded with MUS
// (see ChunkMUS), a compact length-prefixed binary format.
package storage
