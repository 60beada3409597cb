package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/authsvc/internal/logging"
	"github.com/MrEthical07/authsvc/internal/metrics"
	"github.com/MrEthical07/authsvc/jwt"
	"github.com/MrEthical07/authsvc/userstore"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow.
type Deps struct {
	Register     RegisterDeps
	Login        LoginDeps
	Refresh      RefreshDeps
	Authenticate AuthenticateDeps
	Logout       LogoutDeps
	Password     PasswordDeps
	User         UserDeps
}

// Users is the relational collaborator every flow reads accounts through.
type Users interface {
	GetByID(ctx context.Context, id string) (userstore.User, bool, error)
	GetByEmail(ctx context.Context, email string) (userstore.User, bool, error)
	GetByUsername(ctx context.Context, username string) (userstore.User, bool, error)
	Create(ctx context.Context, u userstore.User) (userstore.User, error)
	Update(ctx context.Context, u userstore.User) (userstore.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	RecordLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, q userstore.ListQuery) (userstore.Page, error)
}

// Errors carries host-level sentinel errors so flows return the values the
// root package exports.
type Errors struct {
	EngineNotReady         error
	RegistrationDisabled   error
	EmailTaken             error
	UsernameTaken          error
	InvalidCredentials     error
	AccountInactive        error
	EmailNotVerified       error
	InvalidToken           error
	TokenRevoked           error
	InvalidResetToken      error
	InvalidCurrentPassword error
	PermissionDenied       error
	UserNotFound           error
	Unavailable            error
	Internal               error

	// Invalid builds a validation error with itemized violations.
	Invalid func(message string, violations []string) error
}

// Hooks are the observability callbacks shared by every flow. Nil fields are
// replaced with no-ops.
type Hooks struct {
	MetricInc func(metrics.ID)
	EmitAudit func(ctx context.Context, eventType string, success bool, userID, sessionID string, err error, metadata func() map[string]string)
	Logger    logging.Logger
}

func (h *Hooks) normalize() {
	if h.MetricInc == nil {
		h.MetricInc = func(metrics.ID) {}
	}
	if h.EmitAudit == nil {
		h.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if h.Logger == nil {
		h.Logger = logging.Nop()
	}
}

// Passwords hashes, verifies and grades passwords.
type Passwords struct {
	Hash        func(string) (string, error)
	Verify      func(password, hash string) (bool, error)
	NeedsRehash func(hash string) (bool, error)
	Validate    func(string) (bool, []string)
}

func (p Passwords) ready() bool {
	return p.Hash != nil && p.Verify != nil && p.Validate != nil
}

// Tokens issues and checks signed tokens.
type Tokens struct {
	IssuePair        func(userID string, identity jwt.IdentityClaims) (jwt.TokenPair, error)
	Verify           func(token string, want jwt.TokenType) (*jwt.Claims, error)
	IsRevoked        func(ctx context.Context, token string) (bool, error)
	Revoke           func(ctx context.Context, token string) (bool, error)
	// Claim atomically blacklists a single-use token. Only the first caller
	// gets true.
	Claim            func(ctx context.Context, token string) (bool, error)
	CreateResetToken func(email string) (string, error)
	VerifyResetToken func(token string) (string, error)
}

func identityOf(u userstore.User) jwt.IdentityClaims {
	return jwt.IdentityClaims{
		Email:       u.Email,
		Username:    u.Username,
		IsSuperuser: u.IsSuperuser,
	}
}
