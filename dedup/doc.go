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
// Package dedup detects repeated content with two bounded caches.
//
// ExactCache is a FIFO set of content hashes. NearCache keeps recently
// accepted texts and compares word sets by Jaccard similarity against the
// newest entries only. Deduplicator composes both.
//
// Checks never change cache state. Callers record content with Remember only
// after the content has been accepted, so rejected text never displaces
// accepted entries.
//
// None of the types in this package are safe for concurrent use. They are
// meant to be owned by a single serialized context such as the collector.
package dedup
