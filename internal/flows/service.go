package flows

import (
	"context"

	"github.com/MrEthical07/authsvc/userstore"
)

// Service is the flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Authenticate.Users != nil
}

func (s Service) Register(ctx context.Context, req RegisterRequest) (userstore.User, error) {
	return RunRegister(ctx, req, s.deps.Register)
}

func (s Service) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	return RunLogin(ctx, identifier, password, s.deps.Login)
}

func (s Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	return RunRefresh(ctx, refreshToken, s.deps.Refresh)
}

func (s Service) Authenticate(ctx context.Context, accessToken string) (*AuthenticateResult, error) {
	return RunAuthenticate(ctx, accessToken, s.deps.Authenticate)
}

func (s Service) Logout(ctx context.Context, userID, accessToken, sessionID string) error {
	return RunLogout(ctx, userID, accessToken, sessionID, s.deps.Logout)
}

func (s Service) RequestPasswordReset(ctx context.Context, email string) string {
	return RunRequestPasswordReset(ctx, email, s.deps.Password)
}

func (s Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	return RunConfirmPasswordReset(ctx, token, newPassword, s.deps.Password)
}

func (s Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	return RunChangePassword(ctx, userID, current, next, s.deps.Password)
}

func (s Service) GetUser(ctx context.Context, actor Actor, targetID string) (userstore.User, error) {
	return RunGetUser(ctx, actor, targetID, s.deps.User)
}

func (s Service) UpdateUser(ctx context.Context, actor Actor, targetID string, patch UserPatch) (userstore.User, error) {
	return RunUpdateUser(ctx, actor, targetID, patch, s.deps.User)
}

func (s Service) ListUsers(ctx context.Context, actor Actor, req ListRequest) (ListResult, error) {
	return RunListUsers(ctx, actor, req, s.deps.User)
}

func (s Service) CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (userstore.User, error) {
	return RunCreateUser(ctx, actor, req, s.deps.User)
}

func (s Service) DeleteUser(ctx context.Context, actor Actor, targetID string) error {
	return RunDeleteUser(ctx, actor, targetID, s.deps.User)
}
