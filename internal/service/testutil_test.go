package service

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/database"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// One connection, otherwise each pooled connection gets its own
	// empty in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

var tpinSeq atomic.Int64

func createTestUser(t *testing.T, db *gorm.DB, userType string) *model.User {
	t.Helper()

	id := uuid.New()
	seq := tpinSeq.Add(1)
	user := &model.User{
		ID:        id,
		Tpin:      fmt.Sprintf("%09dA", seq),
		Email:     id.String() + "@example.com",
		Phone:     "+2609" + id.String()[:8],
		Password:  "hashed",
		UserType:  userType,
		Status:    model.AccountActive,
		FirstName: "Chileshe",
		LastName:  "Mwamba",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimalEqual(t *testing.T, want, got decimal.Decimal, label string) {
	t.Helper()
	require.True(t, want.Equal(got), "%s: want %s, got %s", label, want, got)
}
