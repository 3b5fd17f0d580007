// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"gorm.io/gorm"

	"github.com/BangRocket/rook/internal/types"
)

// scoped narrows a query to rows matching scope's tenant/agent/user
// columns, the same three-column partition every row type carries.
func scoped(db *gorm.DB, scope types.Scope) *gorm.DB {
	return db.Where("tenant_id = ? AND agent_id = ? AND user_id = ?", scope.TenantID, scope.AgentID, scope.UserID)
}
