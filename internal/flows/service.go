package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Refresh.VerifyRefresh != nil
}

func (s Service) Register(ctx context.Context, email, name, password string) RegisterResult {
	return RunRegister(ctx, email, name, password, s.deps.Register)
}

func (s Service) Login(ctx context.Context, email, password string) LoginResult {
	return RunLogin(ctx, email, password, s.deps.Login)
}

func (s Service) Refresh(ctx context.Context, refreshToken string) RefreshResult {
	return RunRefresh(ctx, refreshToken, s.deps.Refresh)
}

func (s Service) Logout(ctx context.Context, subjectID, refreshToken string) (int, error) {
	return RunLogout(ctx, subjectID, refreshToken, s.deps.Logout)
}

func (s Service) CurrentIdentity(ctx context.Context, subjectID string) (IdentityRecord, error) {
	return RunCurrentIdentity(ctx, subjectID, s.deps.Identity)
}

func (s Service) IssueTokenPair(ctx context.Context, ident IdentityRecord) (TokenPair, error) {
	return RunIssueTokenPair(ctx, ident, s.deps.Issue)
}
