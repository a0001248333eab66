package middleware

import (
	"context"
	"log"
	"net/http"

	"portal/internal/view"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

const (
	CSRFCookie = "_csrf"
	CSRFField  = "_csrf"
)

type csrfFailureKey struct{}

// CSRF guards form routes with a signed double-submit token. Safe requests get
// the token issued for their page; unsafe ones must echo it in the _csrf field.
// authKey must be 32 bytes. secure marks the cookie HTTPS-only and turns on the
// Referer check for requests that arrived over TLS.
func CSRF(authKey []byte, secure bool) gin.HandlerFunc {
	protect := csrf.Protect(authKey,
		csrf.CookieName(CSRFCookie),
		csrf.FieldName(CSRFField),
		csrf.Path("/"),
		csrf.MaxAge(12*3600),
		csrf.HttpOnly(true),
		csrf.Secure(secure),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(recordCSRFFailure)),
	)

	return func(c *gin.Context) {
		var failure error
		req := c.Request.WithContext(context.WithValue(c.Request.Context(), csrfFailureKey{}, &failure))
		if !secure || req.TLS == nil {
			req = csrf.PlaintextHTTPRequest(req)
		}

		passed := false
		protect(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
		})).ServeHTTP(c.Writer, req)

		if !passed {
			log.Printf("rejected form post from %s: %v", c.ClientIP(), failure)
			c.HTML(http.StatusForbidden, view.ErrorPage, view.ErrorData{
				Title:   "Forbidden",
				Message: "The form expired or was not submitted from this site. Reload the page and try again.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func recordCSRFFailure(_ http.ResponseWriter, r *http.Request) {
	if failure, ok := r.Context().Value(csrfFailureKey{}).(*error); ok {
		*failure = csrf.FailureReason(r)
	}
}

// CSRFToken returns the token a form on this request must embed. It is empty
// unless CSRF ran on the route.
func CSRFToken(c *gin.Context) string {
	return csrf.Token(c.Request)
}
