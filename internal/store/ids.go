// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import "github.com/google/uuid"

// newID mints a new row identifier, matching the teacher's reliance on
// google/uuid for every generated ID.
func newID() string {
	return uuid.New().String()
}
