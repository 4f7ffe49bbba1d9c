package middleware

import "net/http"

// Interceptor handles a request and decides whether, and with which
// request, to invoke the continuation.
type Interceptor func(w http.ResponseWriter, r *http.Request, next http.Handler)

// Chain composes interceptors in order: the first runs outermost.
// The returned decorator wraps the final handler.
func Chain(interceptors ...Interceptor) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		h := final
		for i := len(interceptors) - 1; i >= 0; i-- {
			h = bind(interceptors[i], h)
		}
		return h
	}
}

func bind(ic Interceptor, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ic(w, r, next)
	})
}
