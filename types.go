package authsvc

import (
	"context"
	"io"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/authsvc/internal/audit"
	"github.com/MrEthical07/authsvc/internal/logging"
	"github.com/MrEthical07/authsvc/internal/rate"
	"github.com/MrEthical07/authsvc/jwt"
	"github.com/MrEthical07/authsvc/userstore"
)

// User is the stored account record.
type User = userstore.User

// PublicUser is the outward view of a User without the password hash.
type PublicUser = userstore.PublicUser

// UserListQuery filters and pages a UserStore listing.
type UserListQuery = userstore.ListQuery

// UserPage is one page of a UserStore listing with the unpaged total.
type UserPage = userstore.Page

// TokenPair is an access/refresh token pair with the access lifetime in
// seconds.
type TokenPair = jwt.TokenPair

// Logger is the structured logger the Engine writes to.
type Logger = logging.Logger

// RateTier is a (limit, window) pair for the sliding-window limiter.
type RateTier = rate.Tier

// RateDecision is the outcome of one rate-limit check.
type RateDecision = rate.Decision

// UserStore is the relational collaborator that owns user records. Lookups
// report absence with a false bool, not an error.
//
// Both [userstore.Memory] and [userstore.Postgres] satisfy it.
type UserStore interface {
	GetByID(ctx context.Context, id string) (User, bool, error)
	GetByEmail(ctx context.Context, email string) (User, bool, error)
	GetByUsername(ctx context.Context, username string) (User, bool, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) (User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	RecordLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, q userstore.ListQuery) (userstore.Page, error)
	Ping(ctx context.Context) error
}

// ResetNotifier delivers password-reset tokens, typically by email.
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, email, token string) error
}

// ResetNotifierFunc adapts a function to ResetNotifier.
type ResetNotifierFunc func(ctx context.Context, email, token string) error

func (f ResetNotifierFunc) NotifyPasswordReset(ctx context.Context, email, token string) error {
	return f(ctx, email, token)
}

// RegisterRequest is the input to Engine.Register. Username is optional.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Password string `json:"password"`
}

// LoginResult is returned by Engine.Login.
type LoginResult struct {
	User      PublicUser `json:"user"`
	Tokens    TokenPair  `json:"tokens"`
	SessionID string     `json:"session_id"`
}

// Principal is an authenticated caller, resolved from an access token and
// the current user record.
type Principal struct {
	UserID      string
	Email       string
	Username    string
	IsSuperuser bool
	ExpiresAt   time.Time
	User        PublicUser
}

// UserPatch lists every field UpdateUser may change. Nil fields are left
// alone. Email, IsActive, IsSuperuser and EmailVerified need a superuser.
type UserPatch struct {
	FullName  *string `json:"full_name,omitempty"`
	Username  *string `json:"username,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Location  *string `json:"location,omitempty"`
	Website   *string `json:"website,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Password  *string `json:"password,omitempty"`

	Email         *string `json:"email,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
	IsSuperuser   *bool   `json:"is_superuser,omitempty"`
	EmailVerified *bool   `json:"email_verified,omitempty"`
}

// ListUsersRequest selects one page of the user listing. Page is 1-based
// and Size is capped at 100.
type ListUsersRequest struct {
	Page        int
	Size        int
	Search      string
	IsActive    *bool
	IsSuperuser *bool
}

// UserList is one page of users with paging totals.
type UserList struct {
	Users []PublicUser `json:"users"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Size  int          `json:"size"`
	Pages int          `json:"pages"`
}

// CreateUserRequest is an account created by a superuser. Password may be
// empty, in which case the user sets one through a password reset.
type CreateUserRequest struct {
	Email         string `json:"email"`
	Username      string `json:"username,omitempty"`
	FullName      string `json:"full_name,omitempty"`
	Password      string `json:"password,omitempty"`
	IsActive      bool   `json:"is_active"`
	IsSuperuser   bool   `json:"is_superuser"`
	EmailVerified bool   `json:"email_verified"`
}

// HealthStatus reports reachability of the backing stores.
type HealthStatus struct {
	Redis    bool `json:"redis"`
	Database bool `json:"database"`
}

// Healthy reports whether every store answered.
func (h HealthStatus) Healthy() bool {
	return h.Redis && h.Database
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per event to an [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink writes events as structured log records.
type SlogSink = internalaudit.SlogSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
