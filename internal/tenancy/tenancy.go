// Package tenancy keeps tenant membership consistent across both sides of the
// link: the property's tenant set and the tenant's property set.
//
// The two sets live in separate documents and are written one after the
// other. When the second write fails the first is undone if it changed
// anything, and the caller always gets an error. If the undo fails too the error is an
// *InconsistentError naming both failures.
package tenancy

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roomly/roomly/internal/property"
	"github.com/roomly/roomly/internal/user"
)

// ErrNotTenant is returned when adding a user whose role is not tenant.
var ErrNotTenant = errors.New("user is not a tenant")

// Properties is the property side of the membership link.
type Properties interface {
	GetByID(id string) (*property.Property, error)
	AddTenant(propertyID, userID string) (bool, error)
	RemoveTenant(propertyID, userID string) (bool, error)
	Delete(id string) error
}

// Users is the user side of the membership link.
type Users interface {
	GetByID(id string) (*user.User, error)
	GetByEmail(email string) (*user.User, error)
	AddProperty(userID, propertyID string) (bool, error)
	RemoveProperty(userID, propertyID string) (bool, error)
}

// InconsistentError reports a membership change that failed halfway and
// could not be rolled back. Err is the failure that triggered the undo and
// UndoErr is why the undo failed.
type InconsistentError struct {
	Op         string
	PropertyID string
	UserID     string
	Err        error
	UndoErr    error
}

func (e *InconsistentError) Error() string {
	return fmt.Sprintf("%s: membership of user %s in property %s is inconsistent: %v (undo failed: %v)",
		e.Op, e.UserID, e.PropertyID, e.Err, e.UndoErr)
}

// Unwrap exposes both failures to errors.Is and errors.As.
func (e *InconsistentError) Unwrap() []error {
	return []error{e.Err, e.UndoErr}
}

// Service changes tenant membership as one logical operation.
type Service struct {
	props Properties
	users Users
}

// NewService creates a tenancy service.
func NewService(props Properties, users Users) *Service {
	return &Service{props: props, users: users}
}

// AddTenant links the tenant with the given email to a property. Adding an
// existing member changes nothing.
func (s *Service) AddTenant(email, propertyID string) (*user.User, error) {
	if _, err := s.props.GetByID(propertyID); err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if !u.IsTenant() {
		return nil, fmt.Errorf("%s: %w", u.Email, ErrNotTenant)
	}

	err = s.link("add tenant", propertyID, u.ID,
		func() (bool, error) { return s.props.AddTenant(propertyID, u.ID) },
		func() (bool, error) { return s.users.AddProperty(u.ID, propertyID) },
		func() (bool, error) { return s.props.RemoveTenant(propertyID, u.ID) },
	)
	if err != nil {
		return nil, err
	}

	slog.Info("tenant added", "property_id", propertyID, "user_id", u.ID)
	return s.users.GetByID(u.ID)
}

// RemoveTenant unlinks a user from a property.
func (s *Service) RemoveTenant(userID, propertyID string) error {
	if _, err := s.props.GetByID(propertyID); err != nil {
		return err
	}
	if _, err := s.users.GetByID(userID); err != nil {
		return err
	}

	err := s.link("remove tenant", propertyID, userID,
		func() (bool, error) { return s.props.RemoveTenant(propertyID, userID) },
		func() (bool, error) { return s.users.RemoveProperty(userID, propertyID) },
		func() (bool, error) { return s.props.AddTenant(propertyID, userID) },
	)
	if err != nil {
		return err
	}

	slog.Info("tenant removed", "property_id", propertyID, "user_id", userID)
	return nil
}

// link runs the property write then the user write. When the user write
// fails the property write is undone, but only if it changed the set.
func (s *Service) link(op, propertyID, userID string, first, second, undo func() (bool, error)) error {
	changed, err := first()
	if err != nil {
		return fmt.Errorf("%s: updating property %s: %w", op, propertyID, err)
	}

	_, err = second()
	if err == nil {
		return nil
	}
	if !changed {
		slog.Warn("membership change failed", "op", op, "property_id", propertyID, "user_id", userID, "error", err)
		return fmt.Errorf("%s: updating user %s: %w", op, userID, err)
	}

	if _, undoErr := undo(); undoErr != nil {
		slog.Error("membership left inconsistent",
			"op", op, "property_id", propertyID, "user_id", userID,
			"error", err, "undo_error", undoErr)
		return &InconsistentError{Op: op, PropertyID: propertyID, UserID: userID, Err: err, UndoErr: undoErr}
	}

	slog.Warn("membership change rolled back", "op", op, "property_id", propertyID, "user_id", userID, "error", err)
	return fmt.Errorf("%s: updating user %s (property change undone): %w", op, userID, err)
}

// DeleteProperty detaches every tenant from a property and then deletes it,
// together with its bills and maintenance events. Tenants whose account no
// longer exists are skipped. If a detach or the delete fails, the tenants
// already detached are re-attached.
func (s *Service) DeleteProperty(propertyID string) error {
	p, err := s.props.GetByID(propertyID)
	if err != nil {
		return err
	}

	var detached []string
	for _, uid := range p.TenantIDs {
		changed, err := s.users.RemoveProperty(uid, propertyID)
		if errors.Is(err, user.ErrNotFound) {
			continue
		}
		if err != nil {
			return s.reattach(propertyID, detached, fmt.Errorf("delete property: detaching user %s: %w", uid, err))
		}
		if changed {
			detached = append(detached, uid)
		}
	}

	if err := s.props.Delete(propertyID); err != nil {
		return s.reattach(propertyID, detached, fmt.Errorf("delete property %s: %w", propertyID, err))
	}

	slog.Info("property deleted", "property_id", propertyID, "tenants_detached", len(detached))
	return nil
}

func (s *Service) reattach(propertyID string, userIDs []string, cause error) error {
	for _, uid := range userIDs {
		if _, err := s.users.AddProperty(uid, propertyID); err != nil {
			slog.Error("membership left inconsistent",
				"op", "delete property", "property_id", propertyID, "user_id", uid,
				"error", cause, "undo_error", err)
			return &InconsistentError{Op: "delete property", PropertyID: propertyID, UserID: uid, Err: cause, UndoErr: err}
		}
	}
	return cause
}
