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


package scheduler

import "errors"

var (
	// ErrTaskRequired is returned when no TaskFunc is provided.
	ErrTaskRequired = errors.New("task function is required")

	// ErrTopicRequired is returned when scheduling an empty topic.
	ErrTopicRequired = errors.New("topic is required")

	// ErrInvalidDuration is returned when a job's duration is not positive.
	ErrInvalidDuration = errors.New("duration must be positive")

	// ErrInvalidInterval is returned when a job's interval is shorter than a second.
	ErrInvalidInterval = errors.New("interval must be at least one second")

	// ErrSchedulerStopped is returned when scheduling on a stopped scheduler.
	ErrSchedulerStopped = errors.New("scheduler is stopped")
)
