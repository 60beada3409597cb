package flows

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/authsvc/internal"
	"github.com/MrEthical07/authsvc/internal/metrics"
	"github.com/MrEthical07/authsvc/userstore"
)

// MaxPageSize caps ListRequest.Size.
const MaxPageSize = 100

// ListRequest is one page of the administrator user listing. Page is
// 1-based.
type ListRequest struct {
	Page        int
	Size        int
	Search      string
	IsActive    *bool
	IsSuperuser *bool
}

// ListResult is a page of users with paging totals.
type ListResult struct {
	Users []userstore.User
	Total int
	Page  int
	Size  int
	Pages int
}

// CreateUserRequest is an administrator-created account. Without a
// Password the account gets an unusable hash and must go through a reset.
type CreateUserRequest struct {
	Email         string
	Username      string
	FullName      string
	Password      string
	IsActive      bool
	IsSuperuser   bool
	EmailVerified bool
}

// RunListUsers returns a filtered page of users to a superuser.
func RunListUsers(ctx context.Context, actor Actor, req ListRequest, deps UserDeps) (ListResult, error) {
	deps.Hooks.normalize()
	if deps.Users == nil {
		return ListResult{}, deps.Errors.EngineNotReady
	}
	if !actor.IsSuperuser {
		return ListResult{}, denied(ctx, deps, actor, "list_users")
	}

	switch {
	case req.Page < 1:
		return ListResult{}, deps.Errors.Invalid("Page must be >= 1", nil)
	case req.Size < 1:
		return ListResult{}, deps.Errors.Invalid("Size must be >= 1", nil)
	case req.Size > MaxPageSize:
		return ListResult{}, deps.Errors.Invalid("Size must be <= "+strconv.Itoa(MaxPageSize), nil)
	}

	page, err := deps.Users.List(ctx, userstore.ListQuery{
		Search:      req.Search,
		IsActive:    req.IsActive,
		IsSuperuser: req.IsSuperuser,
		Offset:      (req.Page - 1) * req.Size,
		Limit:       req.Size,
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}

	deps.Hooks.MetricInc(metrics.UserListed)
	return ListResult{
		Users: page.Users,
		Total: page.Total,
		Page:  req.Page,
		Size:  req.Size,
		Pages: (page.Total + req.Size - 1) / req.Size,
	}, nil
}

// RunCreateUser lets a superuser create an account with any flags.
func RunCreateUser(ctx context.Context, actor Actor, req CreateUserRequest, deps UserDeps) (userstore.User, error) {
	deps.Hooks.normalize()
	if deps.Users == nil || !deps.Passwords.ready() {
		return userstore.User{}, deps.Errors.EngineNotReady
	}
	if !actor.IsSuperuser {
		return userstore.User{}, denied(ctx, deps, actor, "create_user")
	}

	email, username, err := newIdentity(ctx, deps.Users, deps.Errors, req.Email, req.Username)
	if err != nil {
		return userstore.User{}, err
	}

	secret := req.Password
	if secret != "" {
		if ok, violations := deps.Passwords.Validate(secret); !ok {
			return userstore.User{}, deps.Errors.Invalid("Password does not meet requirements", violations)
		}
	} else {
		filler, err := internal.URLSafeToken(32)
		if err != nil {
			return userstore.User{}, fmt.Errorf("%w: %v", deps.Errors.Internal, err)
		}
		secret = filler
	}
	hash, err := deps.Passwords.Hash(secret)
	if err != nil {
		return userstore.User{}, fmt.Errorf("%w: %v", deps.Errors.Internal, err)
	}

	user, err := deps.Users.Create(ctx, userstore.User{
		Email:         email,
		Username:      username,
		FullName:      req.FullName,
		PasswordHash:  hash,
		IsActive:      req.IsActive,
		IsSuperuser:   req.IsSuperuser,
		EmailVerified: req.EmailVerified,
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		return userstore.User{}, deps.Errors.EmailTaken
	case errors.Is(err, userstore.ErrDuplicateUsername):
		return userstore.User{}, deps.Errors.UsernameTaken
	case err != nil:
		return userstore.User{}, fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}

	deps.Hooks.MetricInc(metrics.UserCreated)
	deps.Hooks.EmitAudit(ctx, EventUserCreated, true, user.ID, "", nil, func() map[string]string {
		return map[string]string{"actor_id": actor.UserID}
	})
	deps.Hooks.Logger.Info(ctx, "user created by admin", "actor_id", actor.UserID, "user_id", user.ID)
	return user, nil
}
