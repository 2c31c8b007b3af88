package models

import (
	"github.com/uptrace/bun"
)

// Activity is a (name, category) pair that can be scanned into.
// The pair is a natural key: the resolver never creates two rows
// with the same combination.
type Activity struct {
	bun.BaseModel `bun:"table:activities"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Name     string `bun:"name,notnull,unique:activities_name_category_key" json:"name"`
	Category string `bun:"category,notnull,unique:activities_name_category_key" json:"category"`
}
