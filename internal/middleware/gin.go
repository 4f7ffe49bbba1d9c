package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Gin adapts a net/http decorator (such as the result of Chain) to Gin.
// Authentication decisions stay in plain net/http code.
func Gin(decorate func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Bridge handler to resume the Gin chain with the enriched request
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		})

		reached := false
		handler := decorate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			next.ServeHTTP(w, r)
		}))

		// Execute middleware chain
		handler.ServeHTTP(c.Writer, c.Request)

		// If an interceptor answered the request itself, stop the Gin chain
		if !reached {
			c.Abort()
		}
	}
}
