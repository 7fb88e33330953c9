package service

import (
	"techstore/internal/models"
)

// Authorization policy shared by every protected booking operation. Checks are
// explicit functions rather than inline role tests so the rule reads the same
// everywhere it applies.

// AuthorizeOwnerOrAdmin allows the resource owner and any admin.
func AuthorizeOwnerOrAdmin(ident models.Identity, ownerID int64) error {
	if ident.IsAdmin() || ident.UserID == ownerID {
		return nil
	}
	return &models.AuthorizationError{Msg: "not allowed to access this booking"}
}

// AuthorizeAdmin allows admins only, regardless of ownership.
func AuthorizeAdmin(ident models.Identity) error {
	if ident.IsAdmin() {
		return nil
	}
	return &models.AuthorizationError{Msg: "admin privilege required"}
}
