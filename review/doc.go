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

// Package review holds harvested question/answer proposals until a human
// approves or rejects them.
//
// Items enter the queue unapproved. Approving an item promotes it into the
// corpus: the question (and its answer, unless an existing answer is named)
// is created, an approved feedback record is appended and the item is
// removed, all in one storage transaction. The promoted question is then
// published to the search index through the corpus writer, so promotion is
// serialized with every other corpus write.
//
// A failed promotion returns a *core.PromotionError and leaves the item
// queued for a retry. Nothing is ever promoted without an explicit Approve
// or a prior SetApproved(true).
package review
