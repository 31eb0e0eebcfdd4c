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

import (
	"math"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/gleaner/core"
)

// ChunkMUS is the MUS serializer for core.Chunk.
//
// Layout: id, content hash, index, text, metadata (count then sorted
// key/value pairs), vector (count then IEEE-754 bits), stored-at (unix micros).
var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (chunkMUS) Marshal(c core.Chunk, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(c.Id), bs)
	n += ord.String.Marshal(c.ContentHash, bs[n:])
	n += varint.Int64.Marshal(int64(c.Index), bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])

	keys := sortedKeys(c.Metadata)
	n += varint.Uint64.Marshal(uint64(len(keys)), bs[n:])
	for _, k := range keys {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(c.Metadata[k], bs[n:])
	}

	n += varint.Uint64.Marshal(uint64(len(c.Vector)), bs[n:])
	for _, f := range c.Vector {
		n += varint.Uint64.Marshal(uint64(math.Float32bits(f)), bs[n:])
	}

	n += varint.Int64.Marshal(timeToMicros(c.StoredAt), bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (c core.Chunk, n int, err error) {
	var (
		m     int
		u     uint64
		i     int64
		count uint64
	)

	u, m, err = varint.Uint64.Unmarshal(bs)
	n += m
	if err != nil {
		return
	}
	c.Id = core.ID(u)

	c.ContentHash, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}

	i, m, err = varint.Int64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	c.Index = int(i)

	c.Text, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}

	count, m, err = varint.Uint64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	if count > uint64(len(bs)) {
		err = ErrTruncatedData
		return
	}
	if count > 0 {
		c.Metadata = make(map[string]string, count)
	}
	for range count {
		var k, v string
		k, m, err = ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return
		}
		v, m, err = ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return
		}
		c.Metadata[k] = v
	}

	count, m, err = varint.Uint64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	if count > uint64(len(bs)) {
		err = ErrTruncatedData
		return
	}
	if count > 0 {
		c.Vector = make([]float32, count)
	}
	for j := range c.Vector {
		u, m, err = varint.Uint64.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return
		}
		c.Vector[j] = math.Float32frombits(uint32(u))
	}

	i, m, err = varint.Int64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	c.StoredAt = microsToTime(i)
	return
}

func (chunkMUS) Size(c core.Chunk) (size int) {
	size = varint.Uint64.Size(uint64(c.Id))
	size += ord.String.Size(c.ContentHash)
	size += varint.Int64.Size(int64(c.Index))
	size += ord.String.Size(c.Text)

	size += varint.Uint64.Size(uint64(len(c.Metadata)))
	for k, v := range c.Metadata {
		size += ord.String.Size(k)
		size += ord.String.Size(v)
	}

	size += varint.Uint64.Size(uint64(len(c.Vector)))
	for _, f := range c.Vector {
		size += varint.Uint64.Size(uint64(math.Float32bits(f)))
	}

	size += varint.Int64.Size(timeToMicros(c.StoredAt))
	return size
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// timeToMicros encodes the zero time as 0 so it survives a round trip.
func timeToMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func microsToTime(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	u, _, err := varint.Uint64.Unmarshal(data)
	return core.ID(u), err
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, ChunkMUS.Size(*chunk))
	ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}
