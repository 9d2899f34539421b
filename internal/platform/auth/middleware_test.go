package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Stikerz/numan/internal/platform/apierr"
	"github.com/labstack/echo/v4"
)

type mockResolver struct {
	tokens map[string]Principal
	err    error
	calls  int
}

func (m *mockResolver) ResolveToken(_ context.Context, key string) (Principal, error) {
	m.calls++
	if m.err != nil {
		return Principal{}, m.err
	}
	p, ok := m.tokens[key]
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	return p, nil
}

func newResolver() *mockResolver {
	return &mockResolver{tokens: map[string]Principal{
		"9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b": {UserID: 7, Username: "alice"},
	}}
}

func runAuth(t *testing.T, r TokenResolver, header string) (bool, Principal, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/results/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var called bool
	var got Principal
	err := TokenMiddleware(r)(func(c echo.Context) error {
		called = true
		got, _ = PrincipalFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})(c)
	return called, got, err
}

func TestTokenMiddleware_ValidToken(t *testing.T) {
	called, p, err := runAuth(t, newResolver(), "Token 9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected handler to be called")
	}
	if p.UserID != 7 || p.Username != "alice" {
		t.Errorf("unexpected principal %+v", p)
	}
}

func TestTokenMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	called, _, err := runAuth(t, newResolver(), "token 9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b")
	if err != nil || !called {
		t.Fatalf("expected lower-case scheme to be accepted, got %v", err)
	}
}

func TestTokenMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
		msg    string
	}{
		{"missing header", "", "Authentication credentials were not provided."},
		{"bearer scheme", "Bearer 9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b", "Authentication credentials were not provided."},
		{"no credentials", "Token", "Invalid token header. No credentials provided."},
		{"spaces in token", "Token abc def", "Invalid token header. Token string should not contain spaces."},
		{"unknown token", "Token 1234567890123456789012345678901234567890", "Invalid token."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called, _, err := runAuth(t, newResolver(), tt.header)
			if called {
				t.Fatal("handler must not run for unauthenticated requests")
			}
			var ae *apierr.Error
			if !errors.As(err, &ae) {
				t.Fatalf("expected *apierr.Error, got %T (%v)", err, err)
			}
			if ae.Kind != apierr.KindAuth {
				t.Errorf("expected auth kind, got %s", ae.Kind)
			}
			if ae.Msg != tt.msg {
				t.Errorf("expected message %q, got %q", tt.msg, ae.Msg)
			}
		})
	}
}

func TestTokenMiddleware_MissingHeaderSkipsResolver(t *testing.T) {
	r := newResolver()
	runAuth(t, r, "")
	if r.calls != 0 {
		t.Errorf("expected resolver not to be called, got %d calls", r.calls)
	}
}

func TestTokenMiddleware_ResolverFailure(t *testing.T) {
	r := &mockResolver{err: errors.New("connection refused")}
	called, _, err := runAuth(t, r, "Token 9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b")
	if called {
		t.Fatal("handler must not run when the resolver fails")
	}
	if err == nil || apierr.IsAuth(err) {
		t.Errorf("expected an internal error, got %v", err)
	}
}

func TestPrincipalFromContext_Empty(t *testing.T) {
	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Error("expected no principal in empty context")
	}
}
