package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"portal/internal/view"

	"github.com/gin-gonic/gin"
)

func formRouter(key []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(view.Templates())
	guard := CSRF(key, false)
	r.GET("/form", guard, func(c *gin.Context) { c.String(http.StatusOK, CSRFToken(c)) })
	r.POST("/form", guard, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

// issue fetches the form page and returns its token and cookie.
func issue(t *testing.T, r *gin.Engine) (string, *http.Cookie) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/form", nil))
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("form page: %d %q", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == CSRFCookie {
			return w.Body.String(), c
		}
	}
	t.Fatal("no anti-forgery cookie issued")
	return "", nil
}

func postForm(r *gin.Engine, token string, cookie *http.Cookie) int {
	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(url.Values{CSRFField: {token}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestCSRF_AcceptsIssuedToken(t *testing.T) {
	r := formRouter(bytes.Repeat([]byte("k"), 32))
	token, cookie := issue(t, r)
	if code := postForm(r, token, cookie); code != http.StatusNoContent {
		t.Fatalf("issued token rejected: %d", code)
	}
}

func TestCSRF_RejectsForgeries(t *testing.T) {
	r := formRouter(bytes.Repeat([]byte("k"), 32))
	token, cookie := issue(t, r)
	otherToken, otherCookie := issue(t, formRouter(bytes.Repeat([]byte("x"), 32)))

	cases := []struct {
		name   string
		token  string
		cookie *http.Cookie
	}{
		{"missing field", "", cookie},
		{"missing cookie", token, nil},
		{"altered field", token + "A", cookie},
		{"matching unsigned pair", "abc", &http.Cookie{Name: CSRFCookie, Value: "abc"}},
		{"pair signed by another key", otherToken, otherCookie},
	}
	for _, tc := range cases {
		if code := postForm(r, tc.token, tc.cookie); code != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", tc.name, code)
		}
	}
}
