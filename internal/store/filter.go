// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/BangRocket/rook/internal/types"
)

// gormFilterTranslator turns a types.Filter tree into a GORM scope
// function, mirroring original_source's FilterTranslator trait
// (SPEC_FULL.md §6) for the default relational backend.
type gormFilterTranslator struct{}

// columnFields are the row columns a Condition may reference directly;
// anything else is treated as a metadata key and matched against the
// row's JSON metadata blob.
var columnFields = map[string]struct{}{
	"content": {}, "category": {}, "is_key": {}, "stability": {},
	"difficulty": {}, "retrieval_strength": {}, "storage_strength": {},
	"version": {}, "superseded_by": {}, "created_at": {}, "updated_at": {},
	"last_reviewed_at": {}, "archived_at": {}, "accessed_at": {}, "access_count": {},
}

// Translate converts f into a GORM scope function applicable via
// db.Scopes(scope).
func (gormFilterTranslator) Translate(f types.Filter) (any, error) {
	scope, err := translateFilter(f)
	if err != nil {
		return nil, err
	}
	return scope, nil
}

func translateFilter(f types.Filter) (func(*gorm.DB) *gorm.DB, error) {
	switch v := f.(type) {
	case types.Condition:
		return translateCondition(v)
	case types.And:
		children, err := translateAll(v.Filters)
		if err != nil {
			return nil, err
		}
		return func(db *gorm.DB) *gorm.DB {
			for _, c := range children {
				db = c(db)
			}
			return db
		}, nil
	case types.Or:
		children, err := translateAll(v.Filters)
		if err != nil {
			return nil, err
		}
		return func(db *gorm.DB) *gorm.DB {
			inner := db.Session(&gorm.Session{NewDB: true})
			for _, c := range children {
				inner = inner.Or(c(db.Session(&gorm.Session{NewDB: true})))
			}
			return db.Where(inner)
		}, nil
	case types.Not:
		child, err := translateFilter(v.Filter)
		if err != nil {
			return nil, err
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Not(child(db.Session(&gorm.Session{NewDB: true})))
		}, nil
	default:
		return nil, fmt.Errorf("store: unsupported filter type %T", f)
	}
}

func translateAll(filters []types.Filter) ([]func(*gorm.DB) *gorm.DB, error) {
	out := make([]func(*gorm.DB) *gorm.DB, 0, len(filters))
	for _, f := range filters {
		c, err := translateFilter(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func translateCondition(c types.Condition) (func(*gorm.DB) *gorm.DB, error) {
	field := c.Field
	_, isColumn := columnFields[field]

	if !isColumn {
		return translateMetadataCondition(field, c)
	}

	switch c.Operator {
	case types.OpEq:
		return func(db *gorm.DB) *gorm.DB { return db.Where(field+" = ?", c.Value) }, nil
	case types.OpNe:
		return func(db *gorm.DB) *gorm.DB { return db.Where(field+" != ?", c.Value) }, nil
	case types.OpGt:
		return func(db *gorm.DB) *gorm.DB { return db.Where(field+" > ?", c.Value) }, nil
	case types.OpGte:
		return func(db *gorm.DB) *gorm.DB { return db.Where(field+" >= ?", c.Value) }, nil
	case types.OpLt:
		return func(db *gorm.DB) *gorm.DB { return db.Where(field+" < ?", c.Value) }, nil
	case types.OpLte:
		return func(db *gorm.DB) *gorm.DB { return db.Where(field+" <= ?", c.Value) }, nil
	case types.OpIn:
		return func(db *gorm.DB) *gorm.DB { return db.Where(field+" IN ?", c.Value) }, nil
	case types.OpNotIn:
		return func(db *gorm.DB) *gorm.DB { return db.Where(field+" NOT IN ?", c.Value) }, nil
	case types.OpContains:
		return func(db *gorm.DB) *gorm.DB { return db.Where(field+" LIKE ?", "%"+fmt.Sprint(c.Value)+"%") }, nil
	case types.OpIContains:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("LOWER("+field+") LIKE ?", "%"+strings.ToLower(fmt.Sprint(c.Value))+"%")
		}, nil
	case types.OpIsNull:
		return func(db *gorm.DB) *gorm.DB { return db.Where(field + " IS NULL") }, nil
	case types.OpIsNotNull:
		return func(db *gorm.DB) *gorm.DB { return db.Where(field + " IS NOT NULL") }, nil
	default:
		return nil, fmt.Errorf("store: unsupported operator %s on column field %s", c.Operator, field)
	}
}

// translateMetadataCondition matches against the row's JSON metadata blob
// with a LIKE scan. This is intentionally coarse: exact structured
// metadata queries belong on a JSON-capable backend, but a LIKE scan
// over the serialized blob covers the common "does this key/value
// appear" case the reference filter DSL exercises against a document
// store.
func translateMetadataCondition(field string, c types.Condition) (func(*gorm.DB) *gorm.DB, error) {
	needle := fmt.Sprintf(`"%s"`, field)
	switch c.Operator {
	case types.OpExists:
		return func(db *gorm.DB) *gorm.DB { return db.Where("metadata LIKE ?", "%"+needle+"%") }, nil
	case types.OpNotExists:
		return func(db *gorm.DB) *gorm.DB { return db.Where("metadata NOT LIKE ?", "%"+needle+"%") }, nil
	case types.OpEq, types.OpContains, types.OpIContains:
		pair := fmt.Sprintf(`%s:%v`, needle, c.Value)
		return func(db *gorm.DB) *gorm.DB { return db.Where("metadata LIKE ?", "%"+pair+"%") }, nil
	default:
		return nil, fmt.Errorf("store: unsupported operator %s on metadata field %s", c.Operator, field)
	}
}

// applyFilter runs f against db via the shared translator, returning db
// unchanged when f is nil.
func applyFilter(db *gorm.DB, f types.Filter) (*gorm.DB, error) {
	if f == nil {
		return db, nil
	}
	scoped, err := (gormFilterTranslator{}).Translate(f)
	if err != nil {
		return nil, err
	}
	fn, ok := scoped.(func(*gorm.DB) *gorm.DB)
	if !ok {
		return nil, fmt.Errorf("store: filter translator returned unexpected type %T", scoped)
	}
	return fn(db), nil
}
