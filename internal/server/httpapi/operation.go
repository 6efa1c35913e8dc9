package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/bookshelf/internal/logging"
)

const rateWindow = time.Minute

// opFunc is a handler that reports failure by returning an error. The
// operation wrapper turns the error into a response.
type opFunc func(w http.ResponseWriter, req *http.Request) error

// public wraps an operation open to anonymous callers; it is rate limited by
// client address.
func (s *Server) public(op string, h opFunc) http.HandlerFunc {
	return s.operation(op, false, h)
}

// private puts the auth gate in front of the operation. Handlers read the
// caller with UserIDFromContext. Requests are rate limited by client address
// before the gate and per user after it.
func (s *Server) private(op string, h opFunc) http.HandlerFunc {
	return s.operation(op, true, h)
}

// operation logs entry, success and failure-with-kind of a single API call.
func (s *Server) operation(op string, needAuth bool, h opFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		log := s.logger.With("op", op, "request_id", requestIDFromContext(ctx))
		log.Debug(ctx, "operation started", "method", req.Method, "path", req.URL.Path)

		// The address budget is charged ahead of the auth gate.
		if !s.allow(w, req, "ip:"+s.proxies.clientIP(req)) {
			s.rateLimited(w, req, log, op)
			return
		}

		if needAuth {
			authCtx, err := s.authenticate(req)
			if err != nil {
				s.fail(w, req, log, op, err)
				return
			}
			req = req.WithContext(authCtx)
			userID, _ := UserIDFromContext(authCtx)
			log = log.With("user_id", userID)

			if !s.allow(w, req, "user:"+userID) {
				s.rateLimited(w, req, log, op)
				return
			}
		}

		if err := h(w, req); err != nil {
			s.fail(w, req, log, op, err)
			return
		}
		s.metrics.operation(op, "ok")
		log.Info(ctx, "operation succeeded")
	}
}

func (s *Server) fail(w http.ResponseWriter, req *http.Request, log logging.Logger, op string, err error) {
	status, kind := writeError(w, err)
	s.metrics.operation(op, kind)
	if status >= http.StatusInternalServerError {
		log.Error(req.Context(), "operation failed", "kind", kind, "status", status, "error", err)
		return
	}
	log.Warn(req.Context(), "operation failed", "kind", kind, "status", status, "error", err)
}

func (s *Server) rateLimited(w http.ResponseWriter, req *http.Request, log logging.Logger, op string) {
	s.metrics.rateLimited(op)
	log.Warn(req.Context(), "operation rate limited", "kind", kindRateLimited)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded", Kind: kindRateLimited})
}

func (s *Server) allow(w http.ResponseWriter, req *http.Request, key string) bool {
	limit := s.opts.RateLimitPerMinute
	if limit <= 0 || s.deps.Limiter == nil {
		return true
	}
	decision := s.deps.Limiter.Allow(req.Context(), key, limit, rateWindow)
	applyRateHeaders(w, limit, decision)
	return decision.allowed
}

// kindRateLimited is transport-only; the services never produce it.
const kindRateLimited = "rate_limited"
