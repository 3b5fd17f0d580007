// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package types

import "time"

// ChangeKind names why a VersionRecord was appended.
type ChangeKind string

const (
	ChangeKindCreate     ChangeKind = "create"
	ChangeKindUpdate     ChangeKind = "update"
	ChangeKindSupersede  ChangeKind = "supersede"
	ChangeKindArchive    ChangeKind = "archive"
	ChangeKindAnnotation ChangeKind = "annotation"
)

// VersionRecord is an append-only entry in a Memory's history. Every
// create, content change, supersession and archive appends one of these
// after the Memory row itself is written, so history survives even a
// supersede chain several hops deep.
type VersionRecord struct {
	ID        string     `json:"id"`
	MemoryID  string     `json:"memory_id"`
	Version   int        `json:"version"`
	Content   string     `json:"content"`
	Kind      ChangeKind `json:"kind"`
	ChangedAt time.Time  `json:"changed_at"`
	Note      string     `json:"note,omitempty"`
}
