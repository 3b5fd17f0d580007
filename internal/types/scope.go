// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package types

import "fmt"

// Scope identifies the tenant/agent/user triple memories, graph nodes, and
// intentions are partitioned by. Every read and write is bound to exactly
// one scope; nothing in the engine performs cross-scope access.
type Scope struct {
	TenantID string `json:"tenant_id"`
	AgentID  string `json:"agent_id"`
	UserID   string `json:"user_id"`
}

// Key returns the stable string form used as a map/lock key and as the
// partition key for store-backed queries.
func (s Scope) Key() string {
	return fmt.Sprintf("%s/%s/%s", s.TenantID, s.AgentID, s.UserID)
}

// Empty reports whether the scope has no identifying fields set.
func (s Scope) Empty() bool {
	return s.TenantID == "" && s.AgentID == "" && s.UserID == ""
}

// Contains reports whether other is the same scope or a narrower one
// nested under it (same tenant/agent, any user, when this scope leaves
// UserID blank). Used by the ingestion gate and retriever to confirm a
// candidate memory is visible to the requesting scope.
func (s Scope) Contains(other Scope) bool {
	if s.TenantID != "" && s.TenantID != other.TenantID {
		return false
	}
	if s.AgentID != "" && s.AgentID != other.AgentID {
		return false
	}
	if s.UserID != "" && s.UserID != other.UserID {
		return false
	}
	return true
}
