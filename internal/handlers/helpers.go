package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/service"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON document from the request body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", service.ErrValidationFailed)
		}
		return fmt.Errorf("%w: invalid request body: %v", service.ErrValidationFailed, err)
	}
	return nil
}
