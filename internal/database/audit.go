package database

import (
	"go-hardware-pos/internal/models"

	"gorm.io/gorm"
)

// WriteAudit appends one audit log entry using db, which is normally the
// caller's transaction.
func WriteAudit(db *gorm.DB, userID uint, action, details string) error {
	return db.Create(&models.AuditLog{UserID: userID, Action: action, Details: details}).Error
}
