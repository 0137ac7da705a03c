package db

import "gorm.io/gorm"

// GreatestFunc names the two-argument max function for the connected dialect.
func GreatestFunc(tx *gorm.DB) string {
	if tx != nil && tx.Dialector != nil && tx.Dialector.Name() == "sqlite" {
		return "MAX"
	}
	return "GREATEST"
}
