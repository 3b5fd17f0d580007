// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package logging carries a structured logrus.Entry through
// context.Context so every component logs with the same scope/component
// fields without threading a logger parameter through every call.
package logging

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

// Base is the process-wide root logger. Callers building an Engine may
// replace it with one configured for their output format before wiring
// components.
var Base = logrus.New()

// WithFields returns a context carrying a logrus.Entry pre-populated with
// fields, layered onto any entry already present in ctx.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	entry := FromContext(ctx).WithFields(fields)
	return context.WithValue(ctx, ctxKey{}, entry)
}

// FromContext returns the logrus.Entry stored in ctx, or a fresh entry off
// Base if none was attached yet.
func FromContext(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(Base)
}
