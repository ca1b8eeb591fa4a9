package http

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"spese-insights/internal/core"
	"spese-insights/internal/log"
)

// recoverer turns a handler panic into a 500 {"message","code"} response.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			ctx := r.Context()
			log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Recovered from panic",
				fmt.Errorf("panic: %v", rec), log.OpRecover, log.LogFields{"stack": string(debug.Stack())})

			writeJSON(w, http.StatusInternalServerError, errorBody{
				Message: fallbackErrorMessage,
				Code:    string(core.KindInternal),
			})
		}()
		next.ServeHTTP(w, r)
	})
}
