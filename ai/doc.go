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

// Package ai defines the embedding service gleaner scores and searches with.
//
// Relevance scoring embeds a topic and every candidate chunk; storage keeps
// the normalized vectors; search embeds the query and compares by dot
// product. All of that goes through Embedder, so a deployment can point at
// any OpenAI-compatible server (see ai/openai) and tests can substitute
// ai/mock.
//
//	cfg := ai.DefaultConfig()
//	cfg.Model = "nomic-embed-text"
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//	vec, err := provider.Embedder().EmbedText(ctx, "robotic grasping")
package ai
