package session

import (
	"context"
	"errors"
	"testing"

	"github.com/example/delivery-rider/internal/domain/models"
)

type loginAPI struct {
	fakeAuthAPI

	creds     *models.Credentials
	loginErr  error
	logoutErr error

	loggedOutWith string
	earnings      int
}

func (f *loginAPI) Login(ctx context.Context, email, password string) (*models.Credentials, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.creds, nil
}

func (f *loginAPI) Logout(ctx context.Context, accessToken string) error {
	f.loggedOutWith = accessToken
	return f.logoutErr
}

func (f *loginAPI) Earnings(ctx context.Context, accessToken string) (int, error) {
	return f.earnings, nil
}

// passthroughPipe hands the current session token straight to the call.
type passthroughPipe struct {
	store *Store
}

func (p *passthroughPipe) Do(ctx context.Context, call func(ctx context.Context, accessToken string) error) error {
	return call(ctx, p.store.AccessToken())
}

func newTestService(api AuthAPI, tokens TokenStore, store *Store) *Service {
	coord := NewCoordinator(api, tokens, store, testLogger())
	return NewService(api, tokens, store, coord, &passthroughPipe{store: store}, testLogger())
}

func TestLogin_EstablishesSessionAndStoresRefreshToken(t *testing.T) {
	ctx := context.Background()
	api := &loginAPI{creds: &models.Credentials{
		Name:         "Kim",
		Email:        "kim@example.com",
		AccessToken:  "A1",
		RefreshToken: "R1",
	}}
	tokens := newMemTokens()
	store := NewStore()

	svc := newTestService(api, tokens, store)

	if err := svc.Login(ctx, "kim@example.com", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	sess := store.Current()
	if sess.Name != "Kim" || sess.Email != "kim@example.com" || sess.AccessToken != "A1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if v, ok, _ := tokens.Get(ctx, refreshTokenKey); !ok || v != "R1" {
		t.Fatalf("refresh token not persisted, got %q ok=%v", v, ok)
	}
}

func TestLogin_RejectsEmptyCredentials(t *testing.T) {
	svc := newTestService(&loginAPI{}, newMemTokens(), NewStore())

	if err := svc.Login(context.Background(), "", "pw"); !errors.Is(err, ErrEmptyCredentials) {
		t.Fatalf("got %v, want ErrEmptyCredentials", err)
	}
}

func TestLogin_FailureLeavesNoSession(t *testing.T) {
	ctx := context.Background()
	api := &loginAPI{loginErr: errors.New("invalid credentials")}
	tokens := newMemTokens()
	store := NewStore()

	svc := newTestService(api, tokens, store)

	if err := svc.Login(ctx, "kim@example.com", "wrong"); err == nil {
		t.Fatalf("expected login error")
	}
	if store.Current().LoggedIn() {
		t.Fatalf("session must stay empty after a failed login")
	}
	if _, ok, _ := tokens.Get(ctx, refreshTokenKey); ok {
		t.Fatalf("no refresh token may be stored after a failed login")
	}
}

func TestLogout_ClearsStateEvenWhenBackendFails(t *testing.T) {
	ctx := context.Background()
	api := &loginAPI{logoutErr: errors.New("connection refused")}
	tokens := newMemTokens()
	tokens.Set(ctx, refreshTokenKey, "R1")
	store := NewStore()
	store.Set(models.Session{Name: "Kim", AccessToken: "A1"})

	svc := newTestService(api, tokens, store)

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout returned %v", err)
	}
	if api.loggedOutWith != "A1" {
		t.Fatalf("backend logout used token %q, want A1", api.loggedOutWith)
	}
	if store.Current().LoggedIn() {
		t.Fatalf("session must be cleared")
	}
	if _, ok, _ := tokens.Get(ctx, refreshTokenKey); ok {
		t.Fatalf("stored refresh token must be removed")
	}
}

func TestRestore_NoStoredTokenStartsLoggedOut(t *testing.T) {
	store := NewStore()
	svc := newTestService(&loginAPI{}, newMemTokens(), store)

	if err := svc.Restore(context.Background()); err != nil {
		t.Fatalf("restore returned %v", err)
	}
	if store.Current().LoggedIn() {
		t.Fatalf("expected logged-out state")
	}
}

func TestRestore_RejectedTokenClearsDeviceState(t *testing.T) {
	ctx := context.Background()
	api := &loginAPI{}
	api.refreshErr = errors.New("revoked")
	tokens := newMemTokens()
	tokens.Set(ctx, refreshTokenKey, "R-stale")
	store := NewStore()

	svc := newTestService(api, tokens, store)

	if err := svc.Restore(ctx); err != nil {
		t.Fatalf("restore returned %v", err)
	}
	if _, ok, _ := tokens.Get(ctx, refreshTokenKey); ok {
		t.Fatalf("rejected refresh token must be removed")
	}
	if store.Current().LoggedIn() {
		t.Fatalf("expected logged-out state")
	}
}

func TestRestore_ValidTokenRestoresSession(t *testing.T) {
	ctx := context.Background()
	api := &loginAPI{}
	api.refreshToken = "A2"
	tokens := newMemTokens()
	tokens.Set(ctx, refreshTokenKey, "R1")
	store := NewStore()

	svc := newTestService(api, tokens, store)

	if err := svc.Restore(ctx); err != nil {
		t.Fatalf("restore returned %v", err)
	}
	if store.AccessToken() != "A2" {
		t.Fatalf("expected restored access token A2, got %q", store.AccessToken())
	}
}

func TestRefreshEarnings_PublishesOnSession(t *testing.T) {
	api := &loginAPI{earnings: 153000}
	store := NewStore()
	store.Set(models.Session{AccessToken: "A1"})

	svc := newTestService(api, newMemTokens(), store)

	got, err := svc.RefreshEarnings(context.Background())
	if err != nil {
		t.Fatalf("earnings failed: %v", err)
	}
	if got != 153000 || store.Current().Earnings != 153000 {
		t.Fatalf("earnings not published, got %d session=%d", got, store.Current().Earnings)
	}
}

func TestStore_SubscribersSeeEveryMutation(t *testing.T) {
	store := NewStore()

	var seen []models.Session
	store.Subscribe(func(s models.Session) {
		seen = append(seen, s)
	})

	store.Set(models.Session{Name: "Kim", AccessToken: "A1"})
	store.SetAccessToken("A2")
	store.Clear()

	if len(seen) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(seen))
	}
	if seen[1].AccessToken != "A2" || seen[1].Name != "Kim" {
		t.Fatalf("token swap must keep profile fields: %+v", seen[1])
	}
	if seen[2].LoggedIn() {
		t.Fatalf("final notification should be the cleared session")
	}
}
