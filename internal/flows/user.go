package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/authsvc/internal"
	"github.com/MrEthical07/authsvc/internal/metrics"
	"github.com/MrEthical07/authsvc/userstore"
)

// Actor is the authenticated caller of a user-management flow.
type Actor struct {
	UserID      string
	IsSuperuser bool
}

// UserPatch lists every mutable user field. Nil means unchanged.
type UserPatch struct {
	// Self-service fields.
	FullName  *string
	Username  *string
	Bio       *string
	Location  *string
	Website   *string
	AvatarURL *string
	Password  *string

	// Superuser-only fields.
	Email         *string
	IsActive      *bool
	IsSuperuser   *bool
	EmailVerified *bool
}

func (p UserPatch) touchesAdminFields() bool {
	return p.Email != nil || p.IsActive != nil || p.IsSuperuser != nil || p.EmailVerified != nil
}

type UserDeps struct {
	Users     Users
	Passwords Passwords

	Hooks  Hooks
	Errors Errors
}

// RunGetUser returns targetID to itself or to a superuser.
func RunGetUser(ctx context.Context, actor Actor, targetID string, deps UserDeps) (userstore.User, error) {
	deps.Hooks.normalize()
	if deps.Users == nil {
		return userstore.User{}, deps.Errors.EngineNotReady
	}
	if actor.UserID != targetID && !actor.IsSuperuser {
		return userstore.User{}, denied(ctx, deps, actor, "get_user")
	}

	user, found, err := deps.Users.GetByID(ctx, targetID)
	if err != nil {
		return userstore.User{}, fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}
	if !found {
		return userstore.User{}, deps.Errors.UserNotFound
	}
	return user, nil
}

// RunUpdateUser applies patch to targetID. Users may change their own
// profile; only superusers may touch another account or the admin fields.
func RunUpdateUser(ctx context.Context, actor Actor, targetID string, patch UserPatch, deps UserDeps) (userstore.User, error) {
	deps.Hooks.normalize()
	if deps.Users == nil || !deps.Passwords.ready() {
		return userstore.User{}, deps.Errors.EngineNotReady
	}

	user, found, err := deps.Users.GetByID(ctx, targetID)
	if err != nil {
		return userstore.User{}, fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}
	if !found {
		return userstore.User{}, deps.Errors.UserNotFound
	}

	isSelf := actor.UserID == targetID
	if !isSelf && !actor.IsSuperuser {
		return userstore.User{}, denied(ctx, deps, actor, "update_user")
	}
	if patch.touchesAdminFields() && !actor.IsSuperuser {
		return userstore.User{}, denied(ctx, deps, actor, "update_user_admin_fields")
	}

	if patch.FullName != nil {
		user.FullName = *patch.FullName
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.Location != nil {
		user.Location = *patch.Location
	}
	if patch.Website != nil {
		user.Website = *patch.Website
	}
	if patch.AvatarURL != nil {
		user.AvatarURL = *patch.AvatarURL
	}

	if patch.Username != nil {
		username := internal.SanitizeUsername(*patch.Username)
		if username == "" {
			return userstore.User{}, deps.Errors.Invalid("Invalid username", []string{"Username may only contain letters, digits, '_' and '-'"})
		}
		existing, taken, err := deps.Users.GetByUsername(ctx, username)
		if err != nil {
			return userstore.User{}, fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
		}
		if taken && existing.ID != targetID {
			return userstore.User{}, deps.Errors.UsernameTaken
		}
		user.Username = username
	}

	if patch.Email != nil {
		email := internal.SanitizeEmail(*patch.Email)
		if !validEmail(email) {
			return userstore.User{}, deps.Errors.Invalid("Invalid email address", nil)
		}
		existing, taken, err := deps.Users.GetByEmail(ctx, email)
		if err != nil {
			return userstore.User{}, fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
		}
		if taken && existing.ID != targetID {
			return userstore.User{}, deps.Errors.EmailTaken
		}
		user.Email = email
	}

	if patch.IsActive != nil {
		if isSelf && !*patch.IsActive {
			return userstore.User{}, deps.Errors.Invalid("Cannot deactivate your own account", nil)
		}
		user.IsActive = *patch.IsActive
	}
	if patch.IsSuperuser != nil {
		if isSelf && !*patch.IsSuperuser {
			return userstore.User{}, deps.Errors.Invalid("Cannot remove your own superuser status", nil)
		}
		user.IsSuperuser = *patch.IsSuperuser
	}
	if patch.EmailVerified != nil {
		user.EmailVerified = *patch.EmailVerified
	}

	var newHash string
	if patch.Password != nil {
		if ok, violations := deps.Passwords.Validate(*patch.Password); !ok {
			return userstore.User{}, deps.Errors.Invalid("Password does not meet requirements", violations)
		}
		newHash, err = deps.Passwords.Hash(*patch.Password)
		if err != nil {
			return userstore.User{}, fmt.Errorf("%w: %v", deps.Errors.Internal, err)
		}
	}

	updated, err := deps.Users.Update(ctx, user)
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		return userstore.User{}, deps.Errors.EmailTaken
	case errors.Is(err, userstore.ErrDuplicateUsername):
		return userstore.User{}, deps.Errors.UsernameTaken
	case errors.Is(err, userstore.ErrNotFound):
		return userstore.User{}, deps.Errors.UserNotFound
	case err != nil:
		return userstore.User{}, fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}

	if newHash != "" {
		if err := deps.Users.UpdatePasswordHash(ctx, updated.ID, newHash); err != nil {
			return userstore.User{}, fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
		}
		updated.PasswordHash = newHash
	}

	deps.Hooks.MetricInc(metrics.UserUpdated)
	deps.Hooks.EmitAudit(ctx, EventUserUpdated, true, targetID, "", nil, func() map[string]string {
		return map[string]string{"actor_id": actor.UserID}
	})
	return updated, nil
}

// RunDeleteUser removes targetID. Superusers only, and never themselves.
func RunDeleteUser(ctx context.Context, actor Actor, targetID string, deps UserDeps) error {
	deps.Hooks.normalize()
	if deps.Users == nil {
		return deps.Errors.EngineNotReady
	}
	if !actor.IsSuperuser {
		return denied(ctx, deps, actor, "delete_user")
	}
	if actor.UserID == targetID {
		return deps.Errors.Invalid("Cannot delete your own account", nil)
	}

	deleted, err := deps.Users.Delete(ctx, targetID)
	if err != nil {
		return fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}
	if !deleted {
		return deps.Errors.UserNotFound
	}

	deps.Hooks.MetricInc(metrics.UserDeleted)
	deps.Hooks.EmitAudit(ctx, EventUserDeleted, true, targetID, "", nil, func() map[string]string {
		return map[string]string{"actor_id": actor.UserID}
	})
	return nil
}

func denied(ctx context.Context, deps UserDeps, actor Actor, operation string) error {
	deps.Hooks.EmitAudit(ctx, EventPermissionDenied, false, actor.UserID, "", deps.Errors.PermissionDenied, func() map[string]string {
		return map[string]string{"operation": operation}
	})
	return deps.Errors.PermissionDenied
}
