package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"portal/internal/access"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var secret = []byte("s3cret")

func sign(t *testing.T, claims jwt.MapClaims, key []byte) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func whoami(t *testing.T, req *http.Request) (int, access.Identity) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got access.Identity
	ranks := access.Ranks{PRWhitelist: 1, Mentor: 2, Admin: 3, Superadmin: 4}
	r.GET("/", Authenticate(secret), RequireRank(ranks, access.RequireWhitelist, true), func(c *gin.Context) {
		got, _ = CurrentIdentity(c)
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code, got
}

func TestAuthenticate_CookieWithStringLevel(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: sign(t, jwt.MapClaims{"sub": "a@example.org", "level": "3"}, secret)})

	code, id := whoami(t, req)
	if code != http.StatusOK || id.Email != "a@example.org" || id.Rank != 3 {
		t.Fatalf("got %d %+v", code, id)
	}
}

func TestAuthenticate_RejectsForeignSignature(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.MapClaims{"email": "a@example.org", "level": 4}, []byte("other")))

	if code, _ := whoami(t, req); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestAuthenticate_RequiresEmail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.MapClaims{"level": 4}, secret))

	if code, _ := whoami(t, req); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}
