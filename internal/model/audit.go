package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionRegisterTaxpayer   = "REGISTER_TAXPAYER"
	ActionLogin              = "LOGIN"
	ActionFilingSubmitted    = "TAX_FILING_SUBMITTED"
	ActionFilingDraftSaved   = "TAX_FILING_DRAFT_SAVED"
	ActionFilingReviewed     = "TAX_FILING_REVIEWED"
	ActionPaymentProcessed   = "PAYMENT_PROCESSED"
	ActionComplianceUpdated  = "COMPLIANCE_SCORE_UPDATED"
	ActionNotificationRead   = "NOTIFICATION_READ"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for system-initiated actions
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/tpin)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
