package db

import (
	"gorm.io/gorm"

	"github.com/orris-inc/cloudbilling/internal/shared/query"
)

// KeysetAfter pages rows ordered by (column, id) strictly after the cursor.
//
//	tx.Scopes(db.KeysetAfter("next_billing_at", cursor)).Find(&rows)
func KeysetAfter(column string, c query.Cursor) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if c.AfterTime != nil {
			tx = tx.Where("("+column+" > ? OR ("+column+" = ? AND id > ?))", *c.AfterTime, *c.AfterTime, c.AfterID)
		}
		return tx.Order(column + " ASC").Order("id ASC").Limit(c.Size())
	}
}

// IDAfter pages rows ordered by id strictly after the cursor.
func IDAfter(c query.Cursor) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if c.AfterID > 0 {
			tx = tx.Where("id > ?", c.AfterID)
		}
		return tx.Order("id ASC").Limit(c.Size())
	}
}
