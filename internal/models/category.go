package models

import "time"

// Category names are globally unique on their normalized form, so two
// imports spelling "Groceries" and "groceries " share one row.
type Category struct {
	ID             uint `gorm:"primaryKey"`
	Name           string
	NameNormalized string `gorm:"uniqueIndex"`
	CreatedAt      time.Time
}
