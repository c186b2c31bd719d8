package models_test

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/testutil"
)

func TestBeforeCreateAssignsID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("expected an ID to be generated")
	}
}

func TestOwnedBy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	owner := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, owner.ID)

	var found models.Account
	if err := db.Scopes(models.OwnedBy(owner.ID)).Where("id = ?", account.ID).First(&found).Error; err != nil {
		t.Fatalf("expected the owner to find the account: %v", err)
	}

	err := db.Scopes(models.OwnedBy(other.ID)).Where("id = ?", account.ID).First(&found).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected record not found for another user, got %v", err)
	}
}
