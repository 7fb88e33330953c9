package service

import (
	"testing"

	"techstore/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAuthorizeOwnerOrAdmin(t *testing.T) {
	tests := []struct {
		name    string
		ident   models.Identity
		ownerID int64
		allowed bool
	}{
		{"owner", models.Identity{UserID: 7, Role: models.RoleUser}, 7, true},
		{"admin non-owner", models.Identity{UserID: 99, Role: models.RoleAdmin}, 7, true},
		{"stranger", models.Identity{UserID: 8, Role: models.RoleUser}, 7, false},
		{"empty role non-owner", models.Identity{UserID: 8}, 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthorizeOwnerOrAdmin(tt.ident, tt.ownerID)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.True(t, models.IsAuthorization(err))
			}
		})
	}
}

func TestAuthorizeAdmin(t *testing.T) {
	assert.NoError(t, AuthorizeAdmin(models.Identity{UserID: 1, Role: models.RoleAdmin}))

	err := AuthorizeAdmin(models.Identity{UserID: 1, Role: models.RoleUser})
	assert.True(t, models.IsAuthorization(err))
}
