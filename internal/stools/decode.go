package stools

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultMaxBodyBytes is used when DecodeJSONBody is given no limit.
const DefaultMaxBodyBytes int64 = 1 << 20

// MaxBytesError represents an error when the request body exceeds the maximum allowed size
type MaxBytesError struct {
	Message string
}

func (e *MaxBytesError) Error() string {
	return e.Message
}

// MalformedJSONError represents an error when the request body contains malformed JSON
type MalformedJSONError struct {
	Message string
}

func (e *MalformedJSONError) Error() string {
	return e.Message
}

// DecodeJSONBody decodes a single JSON object from the request body into
// dst, rejecting unknown fields and bodies over maxBytes. Client mistakes
// come back as *MalformedJSONError or *MaxBytesError so handlers can answer
// 400; anything else is a server error.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}, maxBytes int64) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
		return &MalformedJSONError{Message: "Content-Type header is not application/json"}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return &MalformedJSONError{
				Message: fmt.Sprintf("Request body contains malformed JSON (at position %d)", syntaxError.Offset),
			}
		case errors.Is(err, io.ErrUnexpectedEOF):
			return &MalformedJSONError{Message: "Request body contains malformed JSON"}
		case errors.As(err, &unmarshalTypeError):
			return &MalformedJSONError{
				Message: fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset),
			}
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return &MalformedJSONError{
				Message: fmt.Sprintf("Request body contains unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field ")),
			}
		case errors.Is(err, io.EOF):
			return &MalformedJSONError{Message: "Request body must not be empty"}
		case errors.As(err, &maxBytesError):
			return &MaxBytesError{
				Message: fmt.Sprintf("Request body must not be larger than %d bytes", maxBytesError.Limit),
			}
		case errors.As(err, &invalidUnmarshalError):
			return fmt.Errorf("invalid unmarshal error: %w", err)
		default:
			// time.Time and other TextUnmarshalers report bad values here
			return &MalformedJSONError{Message: fmt.Sprintf("Request body is invalid: %s", err)}
		}
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return &MalformedJSONError{Message: "Request body must only contain a single JSON object"}
	}
	return nil
}

// IsClientError reports whether err from DecodeJSONBody is the caller's
// fault.
func IsClientError(err error) bool {
	var mj *MalformedJSONError
	var mb *MaxBytesError
	return errors.As(err, &mj) || errors.As(err, &mb)
}
