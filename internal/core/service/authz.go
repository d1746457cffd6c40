package service

import (
	"fmt"

	"github.com/mindmesh/mentorship/internal/core/domain"
)

// requireRole is the role half of the authorization gate. It runs before any
// resource lookup, so a caller with the wrong role learns nothing about
// whether the resource exists.
func requireRole(caller domain.Caller, roles ...domain.Role) error {
	if caller.ID == "" {
		return domain.ErrUnauthorized
	}
	for _, r := range roles {
		if caller.Is(r) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s role cannot perform this operation", domain.ErrForbidden, caller.Role)
}

// requireOwner is the ownership half of the gate; ownerID must already be
// resolved from an existing resource.
func requireOwner(caller domain.Caller, ownerID string) error {
	if ownerID == "" || caller.ID != ownerID {
		return domain.ErrForbidden
	}
	return nil
}
