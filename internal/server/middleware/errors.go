package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/leslieo2/go-fullstack-starter/internal/constants"
)

// ErrorResponse is the JSON body written when a middleware rejects a request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// WriteError writes a JSON error with the given status and machine-readable code.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
	})
}
