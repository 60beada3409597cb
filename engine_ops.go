package authsvc

import (
	"context"
	"time"

	"github.com/MrEthical07/authsvc/internal/flows"
)

// Register creates an account. Username defaults to the email local part.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (PublicUser, error) {
	if !e.ready() {
		return PublicUser{}, ErrEngineNotReady
	}
	user, err := e.flows.Register(ctx, flows.RegisterRequest{
		Email:    req.Email,
		Username: req.Username,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		return PublicUser{}, e.finish(ctx, "register", err)
	}
	return user.Public(), nil
}

// Login accepts an email or a username. An unknown identifier and a wrong
// password produce the same ErrInvalidCredentials.
func (e *Engine) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	res, err := e.flows.Login(ctx, identifier, password)
	if err != nil {
		return nil, e.finish(ctx, "login", err)
	}
	return &LoginResult{
		User:      res.User.Public(),
		Tokens:    res.Tokens,
		SessionID: res.SessionID,
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// not revoked.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}
	res, err := e.flows.Refresh(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, e.finish(ctx, "refresh", err)
	}
	return res.Tokens, nil
}

// Authenticate resolves an access token to the active user behind it.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	var start time.Time
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start = e.now()
	}
	res, err := e.flows.Authenticate(ctx, accessToken)
	if !start.IsZero() {
		e.metrics.Observe(MetricAuthenticateLatency, e.now().Sub(start))
	}
	if err != nil {
		return nil, e.finish(ctx, "authenticate", err)
	}

	p := &Principal{
		UserID:      res.User.ID,
		Email:       res.User.Email,
		Username:    res.User.Username,
		IsSuperuser: res.User.IsSuperuser,
		User:        res.User.Public(),
	}
	if res.Claims.ExpiresAt != nil {
		p.ExpiresAt = res.Claims.ExpiresAt.Time
	}
	return p, nil
}

// Logout ends sessionID for the owner of accessToken. An empty sessionID
// only validates the token. The access token stays valid until it expires
// unless RevokeAccessOnLogout is set.
func (e *Engine) Logout(ctx context.Context, accessToken, sessionID string) error {
	principal, err := e.Authenticate(ctx, accessToken)
	if err != nil {
		return err
	}
	if err := e.flows.Logout(ctx, principal.UserID, accessToken, sessionID); err != nil {
		return e.finish(ctx, "logout", err)
	}
	return nil
}

// RevokeToken blacklists token until it expires. It reports false, without
// an error, for a token that does not verify.
func (e *Engine) RevokeToken(ctx context.Context, token string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}
	ok, err := e.revokeToken(ctx, token)
	if err != nil {
		e.logger.Error(ctx, "token revocation failed", "error", err)
		return false, ErrUnavailable
	}
	if ok {
		e.metricInc(MetricTokenRevoked)
	}
	return ok, nil
}

// Me returns the stored profile of userID.
func (e *Engine) Me(ctx context.Context, userID string) (PublicUser, error) {
	if !e.ready() {
		return PublicUser{}, ErrEngineNotReady
	}
	user, err := e.flows.GetUser(ctx, flows.Actor{UserID: userID}, userID)
	if err != nil {
		return PublicUser{}, e.finish(ctx, "me", err)
	}
	return user.Public(), nil
}

// RequestPasswordReset always returns the same message, whether or not the
// email belongs to an account.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) string {
	if !e.ready() {
		return flows.ResetRequestMessage
	}
	return e.flows.RequestPasswordReset(ctx, email)
}

// ConfirmPasswordReset sets newPassword using a reset token. A token works
// once.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.finish(ctx, "password reset confirm", e.flows.ConfirmPasswordReset(ctx, token, newPassword))
}

// ChangePassword replaces the password of userID after checking current.
func (e *Engine) ChangePassword(ctx context.Context, userID, current, next string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.finish(ctx, "password change", e.flows.ChangePassword(ctx, userID, current, next))
}

// GetUser returns targetID to its owner or a superuser.
func (e *Engine) GetUser(ctx context.Context, actor Principal, targetID string) (PublicUser, error) {
	if !e.ready() {
		return PublicUser{}, ErrEngineNotReady
	}
	user, err := e.flows.GetUser(ctx, actorOf(actor), targetID)
	if err != nil {
		return PublicUser{}, e.finish(ctx, "get user", err)
	}
	return user.Public(), nil
}

// UpdateUser applies patch to targetID. Profile fields may be changed by the
// owner; the rest need a superuser.
func (e *Engine) UpdateUser(ctx context.Context, actor Principal, targetID string, patch UserPatch) (PublicUser, error) {
	if !e.ready() {
		return PublicUser{}, ErrEngineNotReady
	}
	user, err := e.flows.UpdateUser(ctx, actorOf(actor), targetID, flows.UserPatch{
		FullName:      patch.FullName,
		Username:      patch.Username,
		Bio:           patch.Bio,
		Location:      patch.Location,
		Website:       patch.Website,
		AvatarURL:     patch.AvatarURL,
		Password:      patch.Password,
		Email:         patch.Email,
		IsActive:      patch.IsActive,
		IsSuperuser:   patch.IsSuperuser,
		EmailVerified: patch.EmailVerified,
	})
	if err != nil {
		return PublicUser{}, e.finish(ctx, "update user", err)
	}
	return user.Public(), nil
}

// ListUsers returns a filtered page of users. Superusers only.
func (e *Engine) ListUsers(ctx context.Context, actor Principal, req ListUsersRequest) (UserList, error) {
	if !e.ready() {
		return UserList{}, ErrEngineNotReady
	}
	res, err := e.flows.ListUsers(ctx, actorOf(actor), flows.ListRequest{
		Page:        req.Page,
		Size:        req.Size,
		Search:      req.Search,
		IsActive:    req.IsActive,
		IsSuperuser: req.IsSuperuser,
	})
	if err != nil {
		return UserList{}, e.finish(ctx, "list users", err)
	}

	out := UserList{
		Users: make([]PublicUser, 0, len(res.Users)),
		Total: res.Total,
		Page:  res.Page,
		Size:  res.Size,
		Pages: res.Pages,
	}
	for _, u := range res.Users {
		out.Users = append(out.Users, u.Public())
	}
	return out, nil
}

// CreateUser creates an account with explicit flags. Superusers only.
func (e *Engine) CreateUser(ctx context.Context, actor Principal, req CreateUserRequest) (PublicUser, error) {
	if !e.ready() {
		return PublicUser{}, ErrEngineNotReady
	}
	user, err := e.flows.CreateUser(ctx, actorOf(actor), flows.CreateUserRequest{
		Email:         req.Email,
		Username:      req.Username,
		FullName:      req.FullName,
		Password:      req.Password,
		IsActive:      req.IsActive,
		IsSuperuser:   req.IsSuperuser,
		EmailVerified: req.EmailVerified,
	})
	if err != nil {
		return PublicUser{}, e.finish(ctx, "create user", err)
	}
	return user.Public(), nil
}

// DeleteUser removes targetID. Only a superuser may delete, and never
// their own account.
func (e *Engine) DeleteUser(ctx context.Context, actor Principal, targetID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.finish(ctx, "delete user", e.flows.DeleteUser(ctx, actorOf(actor), targetID))
}

func actorOf(p Principal) flows.Actor {
	return flows.Actor{UserID: p.UserID, IsSuperuser: p.IsSuperuser}
}
