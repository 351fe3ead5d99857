package certs

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/postalsys/certs/core/logger"
	"github.com/postalsys/certs/pkg/domains"
)

// maxTokenLength bounds the challenge token accepted on the well-known path.
const maxTokenLength = 256

// RouteHandler resolves the key authorization body for a challenge request
// received on /.well-known/acme-challenge/<token> with Host: <host>. The
// returned error is always a structured *Error carrying the machine code
// and HTTP status for the response.
func (s *Service) RouteHandler(ctx context.Context, host, token string) (string, error) {
	details := map[string]any{}

	name := ""
	if host != "" {
		normalized, err := domains.Normalize(host)
		if err != nil {
			details["host"] = "invalid domain name"
		} else {
			name = normalized
		}
	}

	if token == "" {
		details["token"] = "token is required"
	} else if len(token) > maxTokenLength {
		details["token"] = "token is too long"
	}

	if len(details) > 0 {
		return "", ErrInputValidation.WithDetails(details)
	}

	keyAuthorization, found, err := s.challenges.Get(ctx, name, token)
	if err != nil {
		return "", ErrChallengeFail.WithCause(err)
	}
	if !found || keyAuthorization == "" {
		return "", ErrChallengeNotFound
	}

	return keyAuthorization, nil
}

// Handler serves the ACME HTTP-01 well-known path. Successful lookups are
// answered with the key authorization as text/plain; failures render the
// structured error as JSON with its suggested status.
func (s *Service) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const wellKnown = "/.well-known/acme-challenge/"

		token, ok := strings.CutPrefix(r.URL.Path, wellKnown)
		if !ok || strings.Contains(token, "/") {
			writeError(w, ErrChallengeNotFound)
			return
		}

		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}

		body, err := s.RouteHandler(r.Context(), host, token)
		if err != nil {
			structured := classify(err)
			s.logger.Error("challenge dispatch failed",
				logger.Domain(host),
				logger.Code(structured.Code),
				logger.Error(err))
			writeError(w, structured)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})
}

func writeError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)
	_ = json.NewEncoder(w).Encode(err)
}
