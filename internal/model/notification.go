package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType enum constants
const (
	NotifyFilingReminder   = "FILING_REMINDER"
	NotifyFilingSubmitted  = "FILING_SUBMITTED"
	NotifyFilingApproved   = "FILING_APPROVED"
	NotifyFilingRejected   = "FILING_REJECTED"
	NotifyPaymentConfirmed = "PAYMENT_CONFIRMED"
	NotifyPaymentDue       = "PAYMENT_DUE"
	NotifyComplianceUpdate = "COMPLIANCE_UPDATE"
	NotifySystemAlert      = "SYSTEM_ALERT"
)

// NotificationPriority enum constants
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Notification is an in-app message for a taxpayer
type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID" json:"-"`
	Type      string     `gorm:"type:varchar(30);not null" json:"type"`
	Title     string     `gorm:"type:varchar(255);not null" json:"title"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	Priority  string     `gorm:"type:varchar(10);not null;default:'MEDIUM'" json:"priority"`
	Read      bool       `gorm:"not null;default:false" json:"read"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
