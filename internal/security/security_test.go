package security

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPlayerTokenRoundTrip(t *testing.T) {
	id := NewPlayerID()
	token, exp, err := IssuePlayerToken("secret", id, time.Hour)
	if err != nil {
		t.Fatalf("IssuePlayerToken() error = %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry %v is not in the future", exp)
	}

	got, err := ParsePlayerToken("secret", token)
	if err != nil {
		t.Fatalf("ParsePlayerToken() error = %v", err)
	}
	if got != id {
		t.Errorf("ParsePlayerToken() = %s, want %s", got, id)
	}
}

func TestParsePlayerTokenRejects(t *testing.T) {
	valid, _, _ := IssuePlayerToken("secret", NewPlayerID(), time.Hour)
	expired, _, _ := IssuePlayerToken("secret", NewPlayerID(), -time.Minute)
	notUUID, _, _ := IssuePlayerToken("secret", "player-1", time.Hour)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{name: "wrong secret", secret: "other", token: valid},
		{name: "expired", secret: "secret", token: expired},
		{name: "subject not a uuid", secret: "secret", token: notUUID},
		{name: "garbage", secret: "secret", token: "not.a.token"},
		{name: "empty", secret: "secret", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePlayerToken(tt.secret, tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ParsePlayerToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestCreatePlayerCookieSecureFlag(t *testing.T) {
	plain := httptest.NewRequest("GET", "http://example.com/", nil)
	if CreatePlayerCookie(plain, "v", time.Now()).Secure {
		t.Error("cookie over plain HTTP should not be Secure")
	}

	proxied := httptest.NewRequest("GET", "http://example.com/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https")
	c := CreatePlayerCookie(proxied, "v", time.Now())
	if !c.Secure || !c.HttpOnly || c.Name != PlayerCookieName {
		t.Errorf("cookie = %+v", c)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request within the window should be refused")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("another client has its own budget")
	}
}

func TestLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := []int{}
	for range 2 {
		req := httptest.NewRequest("POST", "/api/words/import", nil)
		req.RemoteAddr = "10.0.0.1:4567"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v", codes)
	}
}
