package core

import (
	"context"
	"strings"
)

// StoreAuthService implements AuthService over a credential store and
// a token store. It is stateless; all persistent state lives in the
// stores, so one instance is safe for concurrent use.
type StoreAuthService struct {
	credentials CredentialStore
	tokens      TokenStore
}

func NewStoreAuthService(credentials CredentialStore, tokens TokenStore) *StoreAuthService {
	return &StoreAuthService{credentials: credentials, tokens: tokens}
}

// Register delegates to the credential store. Uniqueness policy is the
// store's to enforce; its answer is final either way.
func (s *StoreAuthService) Register(ctx context.Context, credential Credential) bool {
	if strings.TrimSpace(credential.Username) == "" {
		return false
	}
	return s.credentials.SaveCredential(ctx, credential)
}

// Login verifies the credential, then mints and persists a fresh
// token. A token that fails to persist is discarded, never exposed.
func (s *StoreAuthService) Login(ctx context.Context, credential Credential) (Token, bool) {
	if !s.credentials.CredentialExists(ctx, credential) {
		return "", false
	}

	token := s.tokens.GenerateToken()
	if !s.tokens.SaveToken(ctx, token, credential.Username) {
		return "", false
	}

	return token, true
}

// Authenticate is a pure reverse lookup on the token store. There is
// no expiry to check; a written mapping stays valid.
func (s *StoreAuthService) Authenticate(ctx context.Context, token Token) (string, bool) {
	return s.tokens.UsernameByToken(ctx, token)
}
