package flows

import "context"

// IdentityDeps captures current-identity lookup dependencies.
type IdentityDeps struct {
	GetByID func(context.Context, string) (IdentityRecord, error)
}

// RunCurrentIdentity fetches the identity projection for a verified subject
// id. The caller maps a provider not-found into its invalid-token signal; the
// password digest is stripped here so it cannot leak past the flow boundary.
func RunCurrentIdentity(ctx context.Context, subjectID string, deps IdentityDeps) (IdentityRecord, error) {
	ident, err := deps.GetByID(ctx, subjectID)
	if err != nil {
		return IdentityRecord{}, err
	}
	ident.PasswordDigest = ""
	return ident, nil
}
