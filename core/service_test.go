package core

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeCredentialStore struct {
	saveResult   bool
	existsResult bool
	saved        []Credential
	checked      []Credential
}

func (f *fakeCredentialStore) SaveCredential(_ context.Context, credential Credential) bool {
	f.saved = append(f.saved, credential)
	return f.saveResult
}

func (f *fakeCredentialStore) CredentialExists(_ context.Context, credential Credential) bool {
	f.checked = append(f.checked, credential)
	return f.existsResult
}

type fakeTokenStore struct {
	token      Token
	saveResult bool
	mappings   map[string]string
	generated  int
}

func (f *fakeTokenStore) GenerateToken() Token {
	f.generated++
	return f.token
}

func (f *fakeTokenStore) SaveToken(_ context.Context, token Token, username string) bool {
	if !f.saveResult {
		return false
	}
	if f.mappings == nil {
		f.mappings = make(map[string]string)
	}
	f.mappings[token] = username
	return true
}

func (f *fakeTokenStore) UsernameByToken(_ context.Context, token Token) (string, bool) {
	username, ok := f.mappings[token]
	return username, ok
}

func TestLoginSuccess(t *testing.T) {
	credential := Credential{Username: "u", Password: "p"}
	creds := &fakeCredentialStore{existsResult: true}
	tokens := &fakeTokenStore{token: "tok", saveResult: true}
	svc := NewStoreAuthService(creds, tokens)

	token, ok := svc.Login(context.Background(), credential)
	if !ok || token != "tok" {
		t.Fatalf("Login = (%q, %v), want (\"tok\", true)", token, ok)
	}
	if got := tokens.mappings["tok"]; got != "u" {
		t.Fatalf("token mapped to %q, want %q", got, "u")
	}
	if len(creds.checked) != 1 || creds.checked[0] != credential {
		t.Fatalf("credential store checked with %v", creds.checked)
	}
}

func TestLoginUnknownCredential(t *testing.T) {
	creds := &fakeCredentialStore{existsResult: false}
	tokens := &fakeTokenStore{token: "tok", saveResult: true}
	svc := NewStoreAuthService(creds, tokens)

	token, ok := svc.Login(context.Background(), Credential{Username: "u", Password: "p"})
	if ok || token != "" {
		t.Fatalf("Login = (%q, %v), want no token", token, ok)
	}
	if tokens.generated != 0 {
		t.Fatalf("token generated for unknown credential")
	}
}

func TestLoginTokenSaveFailure(t *testing.T) {
	creds := &fakeCredentialStore{existsResult: true}
	tokens := &fakeTokenStore{token: "tok", saveResult: false}
	svc := NewStoreAuthService(creds, tokens)

	token, ok := svc.Login(context.Background(), Credential{Username: "u", Password: "p"})
	if ok || token != "" {
		t.Fatalf("Login = (%q, %v), want no token when save fails", token, ok)
	}
	// The generated token must be discarded, never resolvable.
	if _, found := svc.Authenticate(context.Background(), "tok"); found {
		t.Fatalf("unsaved token authenticated")
	}
}

func TestRegisterDelegates(t *testing.T) {
	for _, saveResult := range []bool{true, false} {
		creds := &fakeCredentialStore{saveResult: saveResult}
		svc := NewStoreAuthService(creds, &fakeTokenStore{})

		credential := Credential{Username: "u", Password: "p"}
		if got := svc.Register(context.Background(), credential); got != saveResult {
			t.Fatalf("Register = %v, want store result %v", got, saveResult)
		}
		if len(creds.saved) != 1 || creds.saved[0] != credential {
			t.Fatalf("credential store saved %v", creds.saved)
		}
	}
}

func TestRegisterEmptyUsername(t *testing.T) {
	creds := &fakeCredentialStore{saveResult: true}
	svc := NewStoreAuthService(creds, &fakeTokenStore{})

	if svc.Register(context.Background(), Credential{Username: "   ", Password: "p"}) {
		t.Fatalf("Register accepted blank username")
	}
	if len(creds.saved) != 0 {
		t.Fatalf("blank username reached the store")
	}
}

func TestAuthenticateUnknownToken(t *testing.T) {
	svc := NewStoreAuthService(&fakeCredentialStore{}, &fakeTokenStore{})

	if username, ok := svc.Authenticate(context.Background(), "nope"); ok || username != "" {
		t.Fatalf("Authenticate = (%q, %v), want no identity", username, ok)
	}
}

// memCredentialStore keeps plaintext pairs in a map; test-only.
type memCredentialStore struct {
	mu    sync.Mutex
	users map[string]string
}

func (m *memCredentialStore) SaveCredential(_ context.Context, credential Credential) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = make(map[string]string)
	}
	if _, exists := m.users[credential.Username]; exists {
		return false
	}
	m.users[credential.Username] = credential.Password
	return true
}

func (m *memCredentialStore) CredentialExists(_ context.Context, credential Credential) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	password, ok := m.users[credential.Username]
	return ok && password == credential.Password
}

// Full register -> login -> authenticate flow with a real token store
// over miniredis.
func TestAuthFlowEndToEnd(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := NewStoreAuthService(&memCredentialStore{}, NewRedisTokenStore(client))
	ctx := context.Background()

	alice := Credential{Username: "alice", Password: "secret"}
	if !svc.Register(ctx, alice) {
		t.Fatalf("register alice failed")
	}
	if _, ok := svc.Login(ctx, Credential{Username: "alice", Password: "wrong"}); ok {
		t.Fatalf("login succeeded with wrong password")
	}
	if _, ok := svc.Login(ctx, Credential{Username: "nobody", Password: "secret"}); ok {
		t.Fatalf("login succeeded for unregistered user")
	}

	token, ok := svc.Login(ctx, alice)
	if !ok || token == "" {
		t.Fatalf("login failed for valid credential")
	}
	if username, ok := svc.Authenticate(ctx, token); !ok || username != "alice" {
		t.Fatalf("Authenticate = (%q, %v), want alice", username, ok)
	}
	if _, ok := svc.Authenticate(ctx, "not-a-real-token"); ok {
		t.Fatalf("authenticated a token never issued")
	}
}

// Concurrent logins with the same credential each get an independent
// token; all of them resolve to the same username.
func TestConcurrentLogins(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	creds := &memCredentialStore{users: map[string]string{"alice": "secret"}}
	svc := NewStoreAuthService(creds, NewRedisTokenStore(client))
	ctx := context.Background()

	const n = 16
	results := make(chan Token, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, ok := svc.Login(ctx, Credential{Username: "alice", Password: "secret"})
			if !ok {
				t.Errorf("concurrent login failed")
				return
			}
			results <- token
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[Token]struct{})
	for token := range results {
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token issued: %q", token)
		}
		seen[token] = struct{}{}
		if username, ok := svc.Authenticate(ctx, token); !ok || username != "alice" {
			t.Fatalf("token %q resolved to (%q, %v)", token, username, ok)
		}
	}
	if len(seen) != n {
		t.Fatalf("got %d tokens, want %d", len(seen), n)
	}
}
