package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxJSONBody caps request bodies decoded by ParseJSON.
const MaxJSONBody = 1 << 20

// ParseJSON decodes a single JSON object from the request body.
func ParseJSON(r *http.Request, v interface{}) error {
	return DecodeJSON(io.LimitReader(r.Body, MaxJSONBody), v)
}

// DecodeJSON decodes one JSON value and rejects trailing data.
func DecodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON: unexpected data after object")
	}
	return nil
}
