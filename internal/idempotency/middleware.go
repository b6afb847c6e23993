package idempotency

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Millionpixels-tech/marketplace-sub001/internal/errors"
)

type IdempotencyStore interface {
	Lock(ctx context.Context, key string) (bool, error)
	GetResponse(ctx context.Context, key string) (*IdempotencyResponse, bool, error)
	SaveResponse(ctx context.Context, key string, resp IdempotencyResponse) error
	Delete(ctx context.Context, key string) error
}

type IdempotencyResponse struct {
	StatusCode int                 `json:"status_code"`
	Headers    map[string][]string `json:"headers"`
	Body       []byte              `json:"body"`
}

var ignoredHeaders = map[string]bool{
	"Access-Control-Allow-Origin":      true,
	"Access-Control-Allow-Methods":     true,
	"Access-Control-Allow-Headers":     true,
	"Access-Control-Allow-Credentials": true,
	"Access-Control-Expose-Headers":    true,
	"Date":                             true,
	"Content-Length":                   true,
	"Connection":                       true,
}

func Idempotency(store IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			// TRY TO LOCK (atomic SETNX). Only one request passes this line.
			acquired, err := store.Lock(ctx, key)
			if err != nil {
				// Fail closed for safety
				errors.RespondError(w, r, errors.New(errors.ErrInternal, "Idempotency Service Unavailable", err))
				return
			}

			if !acquired {
				// Key exists: either a finished response or a request in flight
				cachedResp, found, err := store.GetResponse(ctx, key)
				if err != nil {
					errors.RespondError(w, r, errors.New(errors.ErrInternal, "Internal Cache Error", err))
					return
				}

				if found && cachedResp != nil {
					// Replay the saved response
					for k, v := range cachedResp.Headers {
						if ignoredHeaders[k] {
							continue
						}
						for _, val := range v {
							w.Header().Add(k, val)
						}
					}
					w.Header().Set("X-Idempotency-Hit", "true")
					w.WriteHeader(cachedResp.StatusCode)
					w.Write(cachedResp.Body)
					return
				}

				// Key exists but no response yet: a concurrent request is running
				w.Header().Set("Retry-After", "1")
				errors.RespondError(w, r, errors.New(errors.ErrConflict, "Request is currently being processed", nil))
				return
			}

			// LOCK ACQUIRED: execute the real handler, recording the response
			recorder := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}

			next.ServeHTTP(recorder, r)

			// Server error -> rollback so the client may retry
			if recorder.statusCode >= 500 || recorder.statusCode == http.StatusTooManyRequests {
				slog.WarnContext(ctx, "Idempotency: Server error detected, deleting lock", "key", key)
				_ = store.Delete(context.Background(), key)
				return
			}

			// Success/client error -> save permanently, detached from the request context
			go func(k string, status int, headers http.Header, body []byte) {
				saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				cleanHeaders := make(http.Header)
				for k, v := range headers {
					if !ignoredHeaders[k] {
						cleanHeaders[k] = v
					}
				}

				resp := IdempotencyResponse{
					StatusCode: status,
					Headers:    cleanHeaders,
					Body:       body,
				}

				// This overwrites the "processing" lock with the real data
				if err := store.SaveResponse(saveCtx, k, resp); err != nil {
					slog.ErrorContext(saveCtx, "Failed to save idempotency response", "error", err)
				}
			}(key, recorder.statusCode, recorder.Header(), recorder.body.Bytes())
		})
	}
}

// responseRecorder hooks into the response stream to copy the data as it goes out.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
