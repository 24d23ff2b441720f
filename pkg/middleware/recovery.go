package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/goccy/go-json"
)

type panicBody struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
	Stack  string `json:"stack,omitempty"`
}

// Recoverer turns a handler panic into a 500 JSON response. With verbose
// set the panic value and stack trace are included in the body.
func Recoverer(verbose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				stack := string(debug.Stack())
				slog.Error("🔥 PANIC RECOVERED",
					"error", rvr,
					"path", r.URL.Path,
					"method", r.Method,
				)

				body := panicBody{Status: http.StatusInternalServerError, Error: "Internal Server Error"}
				if verbose {
					body.Detail = fmt.Sprintf("%v", rvr)
					body.Stack = stack
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(body)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
