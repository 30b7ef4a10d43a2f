package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Criteria are the active product filters. A nil field places no constraint
// on the catalog.
type Criteria struct {
	Category *string          `json:"category"`
	MinPrice *decimal.Decimal `json:"min_price"`
	MaxPrice *decimal.Decimal `json:"max_price"`
	InStock  *bool            `json:"in_stock"`
}

// IsZero reports whether no field is constrained.
func (c Criteria) IsZero() bool {
	return c.Category == nil && c.MinPrice == nil && c.MaxPrice == nil && c.InStock == nil
}

// Merge applies a patch field by field. Fields the patch does not set are
// kept; fields set to null are cleared. An empty category clears the
// category constraint.
func (c Criteria) Merge(p CriteriaPatch) Criteria {
	if p.Category.Set {
		c.Category = p.Category.Value
		if c.Category != nil && *c.Category == "" {
			c.Category = nil
		}
	}
	if p.MinPrice.Set {
		c.MinPrice = p.MinPrice.Value
	}
	if p.MaxPrice.Set {
		c.MaxPrice = p.MaxPrice.Value
	}
	if p.InStock.Set {
		c.InStock = p.InStock.Value
	}
	return c
}

// CriteriaPatch is a partial update to Criteria. In JSON an omitted key
// leaves the field unchanged, null clears it and a value sets it.
type CriteriaPatch struct {
	Category Optional[string]          `json:"category"`
	MinPrice Optional[decimal.Decimal] `json:"min_price"`
	MaxPrice Optional[decimal.Decimal] `json:"max_price"`
	InStock  Optional[bool]            `json:"in_stock"`
}

// Optional distinguishes "not present" (Set false) from "present and null"
// (Set true, Value nil) and "present with a value".
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns an Optional that explicitly clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON is only invoked for keys present in the document.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
