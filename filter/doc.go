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
// Package filter rejects noise and sensitive text before any other
// ingestion stage sees it.
//
// Checks run in a fixed order and the first match wins:
//
//  1. secret markers and token prefixes
//  2. SQL statements
//  3. configured noise markers (own-product and dev-tool chrome)
//  4. length above the maximum (code or log dumps)
//  5. structural character ratio above the threshold
//
// The secret check is always applied. Configuration can tune the other checks
// but cannot turn it off.
package filter
