package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/delivery-rider/internal/domain/types"
	"github.com/example/delivery-rider/pkg/logger"
)

type fakeTokens struct {
	token       string
	freshToken  string
	freshErr    error
	ensureCalls int
}

func (f *fakeTokens) AccessToken() string {
	return f.token
}

func (f *fakeTokens) EnsureFresh(ctx context.Context) (string, error) {
	f.ensureCalls++
	if f.freshErr != nil {
		return "", f.freshErr
	}
	f.token = f.freshToken
	return f.freshToken, nil
}

func newTestPipeline(tokens *fakeTokens) *Pipeline {
	return NewPipeline(tokens, 10*time.Second, logger.InitLogger("test", logger.LevelError))
}

func TestPipeline_PassesThroughSuccess(t *testing.T) {
	tokens := &fakeTokens{token: "A1"}
	p := newTestPipeline(tokens)

	var used []string
	err := p.Do(context.Background(), func(ctx context.Context, accessToken string) error {
		used = append(used, accessToken)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(used) != 1 || used[0] != "A1" {
		t.Fatalf("expected a single dispatch with A1, got %v", used)
	}
	if tokens.ensureCalls != 0 {
		t.Fatalf("no refresh expected, got %d", tokens.ensureCalls)
	}
}

func TestPipeline_RefreshesAndReplaysOnceOnExpiry(t *testing.T) {
	tokens := &fakeTokens{token: "A1", freshToken: "A2"}
	p := newTestPipeline(tokens)

	var used []string
	err := p.Do(context.Background(), func(ctx context.Context, accessToken string) error {
		used = append(used, accessToken)
		if accessToken == "A1" {
			return types.ErrAuthExpired
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(used) != 2 || used[0] != "A1" || used[1] != "A2" {
		t.Fatalf("expected dispatch with A1 then replay with A2, got %v", used)
	}
	if tokens.ensureCalls != 1 {
		t.Fatalf("expected one refresh, got %d", tokens.ensureCalls)
	}
}

func TestPipeline_SecondExpiryIsAuthExhausted(t *testing.T) {
	tokens := &fakeTokens{token: "A1", freshToken: "A2"}
	p := newTestPipeline(tokens)

	dispatches := 0
	err := p.Do(context.Background(), func(ctx context.Context, accessToken string) error {
		dispatches++
		return types.ErrAuthExpired
	})
	if !errors.Is(err, types.ErrAuthExhausted) {
		t.Fatalf("got %v, want ErrAuthExhausted", err)
	}
	if dispatches != 2 {
		t.Fatalf("expected exactly two dispatches, got %d", dispatches)
	}
	// Bounded retry: no second refresh for the same call.
	if tokens.ensureCalls != 1 {
		t.Fatalf("expected one refresh, got %d", tokens.ensureCalls)
	}
}

func TestPipeline_RefreshFailureSurfaces(t *testing.T) {
	tokens := &fakeTokens{token: "A1", freshErr: types.ErrRefreshFailed}
	p := newTestPipeline(tokens)

	dispatches := 0
	err := p.Do(context.Background(), func(ctx context.Context, accessToken string) error {
		dispatches++
		return types.ErrAuthExpired
	})
	if !errors.Is(err, types.ErrRefreshFailed) {
		t.Fatalf("got %v, want ErrRefreshFailed", err)
	}
	if dispatches != 1 {
		t.Fatalf("no replay after a failed refresh, got %d dispatches", dispatches)
	}
}

func TestPipeline_OtherErrorsAreNotRetried(t *testing.T) {
	tokens := &fakeTokens{token: "A1"}
	p := newTestPipeline(tokens)

	cases := []error{
		&types.BusinessError{Message: "order already taken"},
		&types.APIError{Status: 401, Message: "invalid credentials"},
		types.ErrTransport,
	}
	for _, want := range cases {
		dispatches := 0
		err := p.Do(context.Background(), func(ctx context.Context, accessToken string) error {
			dispatches++
			return want
		})
		if !errors.Is(err, want) {
			t.Fatalf("error %v was not passed through, got %v", want, err)
		}
		if dispatches != 1 {
			t.Fatalf("error %v must not trigger a replay", want)
		}
		if tokens.ensureCalls != 0 {
			t.Fatalf("error %v must not trigger a refresh", want)
		}
	}
}

func TestPipeline_MissingTokenRefreshesBeforeDispatch(t *testing.T) {
	tokens := &fakeTokens{token: "", freshToken: "A2"}
	p := newTestPipeline(tokens)

	var used []string
	err := p.Do(context.Background(), func(ctx context.Context, accessToken string) error {
		used = append(used, accessToken)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(used) != 1 || used[0] != "A2" {
		t.Fatalf("expected a single dispatch with the renewed token, got %v", used)
	}
	if tokens.ensureCalls != 1 {
		t.Fatalf("expected one proactive refresh, got %d", tokens.ensureCalls)
	}
}

func TestPipeline_LocallyExpiredTokenRefreshesBeforeDispatch(t *testing.T) {
	expired := signedToken(t, time.Now().Add(-time.Minute))
	tokens := &fakeTokens{token: expired, freshToken: "A2"}
	p := newTestPipeline(tokens)

	var used []string
	err := p.Do(context.Background(), func(ctx context.Context, accessToken string) error {
		used = append(used, accessToken)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(used) != 1 || used[0] != "A2" {
		t.Fatalf("expected the doomed dispatch to be skipped, got %v", used)
	}
}

func TestPipeline_ValidTokenIsNotRefreshedProactively(t *testing.T) {
	valid := signedToken(t, time.Now().Add(time.Hour))
	tokens := &fakeTokens{token: valid}
	p := newTestPipeline(tokens)

	err := p.Do(context.Background(), func(ctx context.Context, accessToken string) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.ensureCalls != 0 {
		t.Fatalf("valid token must not be refreshed, got %d refreshes", tokens.ensureCalls)
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "kim@example.com",
		"exp":   exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}
