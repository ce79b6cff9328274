package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/anshc022/imf-gadget-api/internal/common"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string                  `json:"error,omitempty"`
	Field   string                  `json:"field,omitempty"`
	Details string                  `json:"details,omitempty"`
	Errors  common.ValidationErrors `json:"errors,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return common.Invalid("body", "request body must be a valid JSON object")
	}
	return nil
}
