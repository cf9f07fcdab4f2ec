package flows

import "time"

// IdentityRecord is the flow-local account model. It is the only shape flows
// see; providers map their own storage models into it.
type IdentityRecord struct {
	SubjectID      string
	Email          string
	Name           string
	PasswordDigest string
	CreatedAt      time.Time
}

// TokenPair carries freshly minted credentials plus their lifetimes in
// seconds, the shape ultimately returned to the transport boundary.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  int64
	RefreshExpiresIn int64
}

// Deps aggregates per-flow dependencies, wired once by the root engine.
type Deps struct {
	Register RegisterDeps
	Login    LoginDeps
	Refresh  RefreshDeps
	Logout   LogoutDeps
	Identity IdentityDeps
	Issue    IssueDeps
}
