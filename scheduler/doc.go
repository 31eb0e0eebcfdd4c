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


// Package scheduler runs recurring research jobs bound to a topic.
//
// Each Job fires on a fixed interval until its expiry deadline or until it is
// cancelled. A tick invokes a TaskFunc with the job's cursor, advances the
// cursor by the batch size and pushes a display line into the ResultQueue,
// which consumers drain on demand.
//
// Ticks are driven by a cron timer and dispatched onto a worker pool. Ticks
// for different jobs may run concurrently; ticks for the same job never
// overlap. Tests call Tick directly with an injected clock.
//
// Commands parses free-form scheduling requests such as
// "research quantum computing for 5 minutes every 30 seconds".
package scheduler
