package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/csheth/promptune/internal/logger"
	"github.com/csheth/promptune/internal/refine"
)

const maxRequestBytes = 1 << 20

type rewriteRequest struct {
	Prompt string `json:"prompt"`
}

type chatRequest struct {
	Messages []refine.Message `json:"messages"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves POST /rewrite and POST /chat. Failures are reported as
// {"error": "..."} so clients can show the message to the user.
func Handler(svc *Service) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rewrite", func(w http.ResponseWriter, r *http.Request) {
		var req rewriteRequest
		if !decode(w, r, &req) {
			return
		}
		set, err := svc.Rewrite(r.Context(), req.Prompt)
		if err != nil {
			fail(w, r, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, set)
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if !decode(w, r, &req) {
			return
		}
		reply, err := svc.Chat(r.Context(), req.Messages)
		if err != nil {
			fail(w, r, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, chatResponse{Response: reply})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return withRequestLog(mux)
}

// statusFor blames the caller for invalid input and the upstream model for
// everything else.
func statusFor(err error) int {
	if errors.Is(err, ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		fail(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return false
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		fail(w, r, http.StatusBadRequest, err)
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		fail(w, r, http.StatusBadRequest, errors.New("invalid JSON body"))
		return false
	}
	return true
}

func fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger.Named("backend").WithFields(logger.Fields{
		"path":   r.URL.Path,
		"status": status,
	}).WithError(err).Warn("request failed")
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
		logger.Named("backend").WithFields(logger.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": id,
			"duration":   time.Since(started),
		}).Info("handled request")
	})
}

// Serve runs the handler on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, svc *Service) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Named("backend").WithFields(logger.Fields{
			"addr":      addr,
			"completer": svc.completer.Name(),
		}).Info("listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
