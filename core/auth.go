package core

import "context"

// Credential is a username/password pair as supplied by a client.
// The password is an opaque secret at this layer; hashing and
// verification live entirely inside the credential store.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token is an opaque session identifier. One token maps to exactly one
// username and nothing outside the token store inspects its contents.
type Token = string

// AuthService implements register / login / authenticate over the two
// stores. Expected-outcome failures (unknown user, wrong password,
// unknown token) and infrastructure failures are both reported as
// false / not-ok; callers cannot distinguish them from this contract.
type AuthService interface {
	Register(ctx context.Context, credential Credential) bool
	Login(ctx context.Context, credential Credential) (Token, bool)
	Authenticate(ctx context.Context, token Token) (string, bool)
}

// CredentialStore persists credentials and verifies them. Username
// uniqueness is this store's responsibility, not the service's.
type CredentialStore interface {
	// SaveCredential persists a new credential. False on any failure
	// (duplicate username, connectivity) without distinguishing cause.
	SaveCredential(ctx context.Context, credential Credential) bool
	// CredentialExists reports whether a credential with matching
	// username and password exists under the store's own verification
	// scheme.
	CredentialExists(ctx context.Context, credential Credential) bool
}

// TokenStore issues tokens and resolves them back to usernames.
type TokenStore interface {
	// GenerateToken mints a fresh token with cryptographically
	// negligible collision probability.
	GenerateToken() Token
	// SaveToken persists token -> username, overwriting any existing
	// mapping for that token. False only on storage failure.
	SaveToken(ctx context.Context, token Token, username string) bool
	// UsernameByToken resolves a token. Absence is a normal outcome,
	// never an error.
	UsernameByToken(ctx context.Context, token Token) (string, bool)
}
