package common

import (
	"encoding/json"
	"io"
	"net/http"

	pkgerrors "tripgraph/pkg/errors"
)

// maxBodyBytes caps request bodies; events are small
const maxBodyBytes = 1 << 20

// MessageResponse is the body of acknowledgements without a payload
type MessageResponse struct {
	Message string `json:"message"`
}

// RespondJSON sends data as the JSON body
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondMessage sends {"message": msg}
func RespondMessage(w http.ResponseWriter, status int, msg string) {
	RespondJSON(w, status, MessageResponse{Message: msg})
}

// DecodeJSON reads a JSON body into v. An empty body leaves v untouched
// when allowEmpty is set.
func DecodeJSON(r *http.Request, v interface{}, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if err == io.EOF && allowEmpty {
			return nil
		}
		if err == io.EOF {
			return pkgerrors.NewValidationError("request body is required")
		}
		return pkgerrors.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}
