package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserType enum constants
const (
	UserTypeIndividual = "INDIVIDUAL"
	UserTypeBusiness   = "BUSINESS"
	UserTypeZraStaff   = "ZRA_STAFF"
	UserTypeAdmin      = "ADMIN"
)

// AccountStatus enum constants
const (
	AccountPending   = "PENDING"
	AccountActive    = "ACTIVE"
	AccountSuspended = "SUSPENDED"
	AccountClosed    = "CLOSED"
)

// User represents a registered taxpayer or staff account
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Tpin         string         `gorm:"type:varchar(10);uniqueIndex;not null" json:"tpin"` // Taxpayer Identification Number
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone        string         `gorm:"type:varchar(15);uniqueIndex;not null" json:"phone"`
	Password     string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON responses
	UserType     string         `gorm:"type:varchar(20);not null" json:"user_type"`
	Status       string         `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	FirstName    string         `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string         `gorm:"type:varchar(100)" json:"last_name"`
	BusinessName string         `gorm:"type:varchar(255)" json:"business_name,omitempty"` // Business taxpayers only
	NationalID   string         `gorm:"type:varchar(20)" json:"national_id,omitempty"`
	LastLogin    *time.Time     `json:"last_login"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
