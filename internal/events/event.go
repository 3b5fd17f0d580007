// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package events implements the event bus (spec.md component L): an
// in-process fan-out of memory lifecycle events plus async webhook
// delivery with HMAC signing and retry.
package events

import "time"

// Kind names a memory lifecycle event for subscriber/webhook filtering.
type Kind string

const (
	KindCreated  Kind = "memory.created"
	KindUpdated  Kind = "memory.updated"
	KindDeleted  Kind = "memory.deleted"
	KindAccessed Kind = "memory.accessed"
)

// UpdateKind distinguishes why a memory.updated event fired.
type UpdateKind string

const (
	UpdateContent    UpdateKind = "content"
	UpdateMetadata   UpdateKind = "metadata"
	UpdateFSRSState  UpdateKind = "fsrs_state"
	UpdateSuperseded UpdateKind = "superseded"
	UpdateMerged     UpdateKind = "merged"
)

// AccessKind distinguishes how a memory was accessed.
type AccessKind string

const (
	AccessDirectGet           AccessKind = "direct_get"
	AccessSearch              AccessKind = "search"
	AccessSpreadingActivation AccessKind = "spreading_activation"
	AccessUsedInResponse      AccessKind = "used_in_response"
	AccessReviewed            AccessKind = "reviewed"
)

// Event is a memory lifecycle event emitted onto the bus. Exactly one of
// the payload fields is populated, selected by Kind.
type Event struct {
	EventID   string
	Kind      Kind
	MemoryID  string
	UserID    string
	Timestamp time.Time

	Created  *CreatedPayload
	Updated  *UpdatedPayload
	Deleted  *DeletedPayload
	Accessed *AccessedPayload
}

// CreatedPayload is the memory.created event body.
type CreatedPayload struct {
	Content  string
	Metadata map[string]any
}

// UpdatedPayload is the memory.updated event body.
type UpdatedPayload struct {
	OldContent string
	NewContent string
	UpdateKind UpdateKind
	Version    int
}

// DeletedPayload is the memory.deleted event body.
type DeletedPayload struct {
	SoftDelete bool
	Reason     string
}

// AccessedPayload is the memory.accessed event body.
type AccessedPayload struct {
	AccessKind     AccessKind
	Query          string
	RelevanceScore float64
}
