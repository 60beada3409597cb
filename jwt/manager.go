package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod names the HMAC algorithm used for every token a Manager issues.
type SigningMethod string

const (
	MethodHS256 SigningMethod = "HS256"
	MethodHS384 SigningMethod = "HS384"
	MethodHS512 SigningMethod = "HS512"
)

// TokenType is carried in the "type" claim and prevents cross-use of tokens.
type TokenType string

const (
	TypeAccess        TokenType = "access"
	TypeRefresh       TokenType = "refresh"
	TypePasswordReset TokenType = "password_reset"
)

const minSecretBytes = 32

var (
	// ErrInvalidToken covers bad signatures, malformed tokens and missing claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when exp is at or before the current time.
	ErrExpiredToken = errors.New("token expired")
	// ErrWrongTokenType is returned when a valid token has an unexpected type claim.
	ErrWrongTokenType = errors.New("wrong token type")
)

// Config holds the signing secret and per-type lifetimes.
type Config struct {
	Secret        []byte
	SigningMethod SigningMethod
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
	Issuer        string
	Leeway        time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Claims is the decoded claim set of any token issued by Manager.
type Claims struct {
	Type        TokenType      `json:"type"`
	Email       string         `json:"email,omitempty"`
	Username    string         `json:"username,omitempty"`
	IsSuperuser bool           `json:"is_superuser,omitempty"`
	Extra       map[string]any `json:"ext,omitempty"`
	jwt.RegisteredClaims
}

// IdentityClaims are the caller-supplied claims embedded in access tokens so
// downstream authorization does not need a second user lookup.
type IdentityClaims struct {
	Email       string
	Username    string
	IsSuperuser bool
	Extra       map[string]any
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Manager issues and verifies HMAC-signed typed tokens.
//
// Manager is immutable after construction and safe for concurrent use.
type Manager struct {
	config Config
	method jwt.SigningMethod
	now    func() time.Time
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < minSecretBytes {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretBytes)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.ResetTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	var method jwt.SigningMethod
	switch cfg.SigningMethod {
	case MethodHS256, "":
		method = jwt.SigningMethodHS256
	case MethodHS384:
		method = jwt.SigningMethodHS384
	case MethodHS512:
		method = jwt.SigningMethodHS512
	default:
		return nil, errors.New("unsupported signing method")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{config: cfg, method: method, now: now}, nil
}

// AccessTTL reports the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration {
	return m.config.AccessTTL
}

// CreateTokenPair issues an access token carrying identity and a refresh
// token carrying only the subject and type.
func (m *Manager) CreateTokenPair(userID string, identity IdentityClaims) (TokenPair, error) {
	if userID == "" {
		return TokenPair{}, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}

	access, err := m.sign(Claims{
		Type:        TypeAccess,
		Email:       identity.Email,
		Username:    identity.Username,
		IsSuperuser: identity.IsSuperuser,
		Extra:       identity.Extra,
	}, userID, m.config.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := m.sign(Claims{Type: TypeRefresh}, userID, m.config.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(m.config.AccessTTL / time.Second),
	}, nil
}

// CreatePasswordResetToken issues a password_reset token bound to email.
func (m *Manager) CreatePasswordResetToken(email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("%w: empty email", ErrInvalidToken)
	}
	return m.sign(Claims{Type: TypePasswordReset, Email: email}, email, m.config.ResetTTL)
}

func (m *Manager) sign(claims Claims, subject string, ttl time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    m.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	return jwt.NewWithClaims(m.method, claims).SignedString(m.config.Secret)
}

// Verify checks the signature, then requires exp to be present and in the
// future. A token without exp is invalid, never non-expiring.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Type == "" {
		return nil, fmt.Errorf("%w: missing sub or type", ErrInvalidToken)
	}

	return claims, nil
}

// VerifyType verifies tokenStr and requires its type claim to equal want.
func (m *Manager) VerifyType(tokenStr string, want TokenType) (*Claims, error) {
	claims, err := m.Verify(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongTokenType, claims.Type, want)
	}
	return claims, nil
}

// VerifyPasswordReset verifies a password_reset token and returns its email.
func (m *Manager) VerifyPasswordReset(tokenStr string) (string, error) {
	claims, err := m.VerifyType(tokenStr, TypePasswordReset)
	if err != nil {
		return "", err
	}
	if claims.Email == "" {
		return "", fmt.Errorf("%w: missing email", ErrInvalidToken)
	}
	return claims.Email, nil
}
