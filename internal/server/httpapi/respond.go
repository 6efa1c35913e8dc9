package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/bookshelf/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

var statusByKind = map[string]int{
	common.KindValidation:         http.StatusBadRequest,
	common.KindDuplicateUser:      http.StatusConflict,
	common.KindInvalidCredentials: http.StatusUnauthorized,
	common.KindUnauthenticated:    http.StatusUnauthorized,
	common.KindInvalidToken:       http.StatusForbidden,
	common.KindNotFound:           http.StatusNotFound,
	common.KindEmptyCart:          http.StatusBadRequest,
	common.KindStorage:            http.StatusInternalServerError,
	common.KindInternal:           http.StatusInternalServerError,
}

// messageByKind is what clients see. Storage and internal failures never
// expose the underlying error text.
var messageByKind = map[string]string{
	common.KindDuplicateUser:      "user already exists",
	common.KindInvalidCredentials: "invalid credentials",
	common.KindUnauthenticated:    "authentication required",
	common.KindInvalidToken:       "invalid token",
	common.KindNotFound:           "not found",
	common.KindEmptyCart:          "cart is empty",
	common.KindStorage:            "storage failure",
	common.KindInternal:           "internal error",
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps err to its kind and status and writes the error body.
func writeError(w http.ResponseWriter, err error) (int, string) {
	kind := common.Kind(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	body := errorResponse{Error: messageByKind[kind], Kind: kind}
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		body.Error = ve.Error()
		body.Field = ve.Field
	case kind == common.KindValidation:
		body.Error = err.Error()
	}

	writeJSON(w, status, body)
	return status, kind
}
