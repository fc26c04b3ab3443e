package database

import (
	"log"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate creates the schema and the constraints the domain relies on.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.TaxFiling{},
		&model.ComplianceScore{},
		&model.Payment{},
		&model.Notification{},
		&model.AuditLog{},
	)
	if err != nil {
		return err
	}

	// At most one non-draft filing per (taxpayer, year, period, tax type).
	// The service-level duplicate check is a read-then-write race without this.
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_tax_filings_period
		ON tax_filings (user_id, tax_year, tax_period, tax_type)
		WHERE status != 'DRAFT'`).Error
}
