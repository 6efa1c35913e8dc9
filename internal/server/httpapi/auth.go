package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/bookshelf/internal/common"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// UserIDFromContext returns the identity bound by the auth gate.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// authenticate extracts and verifies the bearer token. A missing or
// malformed header is common.ErrUnauthenticated; a token that does not
// verify is common.ErrInvalidToken.
func (s *Server) authenticate(req *http.Request) (context.Context, error) {
	token, err := bearerToken(req.Header.Get(common.AuthorizationHeaderName))
	if err != nil {
		return nil, err
	}
	userID, err := s.deps.Tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	return context.WithValue(req.Context(), userIDKey, userID), nil
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", fmt.Errorf("%w: missing authorization header", common.ErrUnauthenticated)
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerScheme) {
		return "", fmt.Errorf("%w: invalid authorization header format", common.ErrUnauthenticated)
	}
	return parts[1], nil
}
