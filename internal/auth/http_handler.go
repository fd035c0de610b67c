package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
)

type flow interface {
	AuthURL(userID string) (string, error)
	HandleCallback(ctx context.Context, state, code string) (string, error)
	Connected(ctx context.Context, userID string) (bool, error)
}

// HTTPHandler serves the OAuth2 redirect flow: ?connect=<user> starts the
// consent round-trip, the provider redirects back with code+state.
type HTTPHandler struct {
	flow flow
}

// NewHTTPHandler creates the OAuth callback handler.
func NewHTTPHandler(flow flow) *HTTPHandler {
	return &HTTPHandler{flow: flow}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if userID := r.URL.Query().Get("connect"); userID != "" {
		url, err := h.flow.AuthURL(userID)
		if err != nil {
			log.Println("flow.AuthURL failed", err)
			http.Error(w, "Unable to start authorization", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	if code := r.URL.Query().Get("code"); code != "" {
		state := r.URL.Query().Get("state")

		userID, err := h.flow.HandleCallback(r.Context(), state, code)
		if errors.Is(err, ErrInvalidState) {
			http.Error(w, "Invalid or expired state", http.StatusBadRequest)
			return
		}
		if err != nil {
			log.Println("flow.HandleCallback failed", err)
			http.Error(w, "Unable to authorize provided code", http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "Google account connected for user %s", userID)
		return
	}

	if userID := r.URL.Query().Get("status"); userID != "" {
		connected, err := h.flow.Connected(r.Context(), userID)
		if err != nil {
			log.Println("flow.Connected failed", err)
			http.Error(w, "Unable to check account status", http.StatusInternalServerError)
			return
		}
		if !connected {
			http.Error(w, "Account not connected", http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "Account connected for user %s", userID)
		return
	}

	http.Error(w, "Missing connect, status or code parameter", http.StatusBadRequest)
}
