package core

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a throwaway bcrypt hash compared against when the
// username is unknown, so CredentialExists costs one bcrypt
// verification whether or not the user exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// PgCredentialStore implements CredentialStore on PostgreSQL.
// Passwords are stored bcrypt-hashed; the plaintext never leaves this
// adapter once hashed and the stored hash never leaves it at all.
type PgCredentialStore struct {
	db *pgxpool.Pool
}

func NewPgCredentialStore(db *pgxpool.Pool) *PgCredentialStore {
	return &PgCredentialStore{db: db}
}

// SaveCredential hashes the password and inserts the row. Duplicate
// usernames and connectivity failures both come back as false; the
// service has no use for the distinction.
func (s *PgCredentialStore) SaveCredential(ctx context.Context, credential Credential) bool {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential.Password), bcrypt.DefaultCost)
	if err != nil {
		return false
	}

	const q = `INSERT INTO credentials (username, password_hash) VALUES ($1, $2)`
	tag, err := s.db.Exec(ctx, q, credential.Username, string(hash))
	if err != nil {
		return false
	}
	return tag.RowsAffected() > 0
}

// CredentialExists fetches the stored hash by username and verifies
// the password inside the adapter.
func (s *PgCredentialStore) CredentialExists(ctx context.Context, credential Credential) bool {
	const q = `SELECT password_hash FROM credentials WHERE username=$1`
	var hash string
	if err := s.db.QueryRow(ctx, q, credential.Username).Scan(&hash); err != nil {
		// Covers unknown username and connectivity failure alike.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(credential.Password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential.Password)) == nil
}
