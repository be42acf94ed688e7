package provider

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// CodeUnknown is used when neither the provider nor the HTTP status
// identify the failure.
const CodeUnknown = "UNKNOWN_ERROR"

// Error is the single error type returned by provider operations.
type Error struct {
	Message string
	// Code is the provider's error_code, else HTTP_<status>, else UNKNOWN_ERROR.
	Code string
	// StatusCode is zero when no HTTP response was received.
	StatusCode int
	// Details is the raw provider error payload. Non-JSON bodies are
	// wrapped as {"message": <body>}.
	Details json.RawMessage

	transport bool
	cause     error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider: %s (%s, status %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("provider: %s (%s)", e.Message, e.Code)
}

func (e *Error) Unwrap() error { return e.cause }

// Transport reports whether the request failed before a response arrived.
func (e *Error) Transport() bool { return e.transport }

// Retryable reports whether repeating the request may succeed: transport
// failures and 5xx responses are retryable, everything else is permanent.
func (e *Error) Retryable() bool {
	return e.transport || e.StatusCode >= http.StatusInternalServerError
}

// IsNotFound reports whether err is a provider 404.
func IsNotFound(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.StatusCode == http.StatusNotFound
}

func transportError(err error) *Error {
	return &Error{
		Message:   err.Error(),
		Code:      CodeUnknown,
		transport: true,
		cause:     err,
	}
}

func decodeError(body []byte, err error) *Error {
	return &Error{
		Message: "malformed provider response: " + err.Error(),
		Code:    CodeUnknown,
		Details: wrapDetails(body),
		cause:   err,
	}
}

// statusError classifies a non-2xx response.
func statusError(status int, body []byte) *Error {
	e := &Error{
		Message:    fmt.Sprintf("request failed with status %d", status),
		Code:       fmt.Sprintf("HTTP_%d", status),
		StatusCode: status,
		Details:    wrapDetails(body),
	}
	code, msg := parseEnvelope(e.Details)
	if code != "" {
		e.Code = code
	}
	if msg != "" {
		e.Message = msg
	}
	return e
}

func wrapDetails(body []byte) json.RawMessage {
	if len(body) > 0 && jx.Valid(body) {
		return json.RawMessage(body)
	}
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("message")
	e.Str(string(body))
	e.ObjEnd()
	return json.RawMessage(e.Bytes())
}

// parseEnvelope extracts error_code and message from either a flat
// {"error_code","message"} object or a {"errors":[{...}]} envelope, where
// the first entry wins.
func parseEnvelope(data []byte) (code, message string) {
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return "", ""
	}
	_ = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "error_code":
			if s, ok := readString(d); ok && code == "" {
				code = s
			}
			return nil
		case "message":
			if s, ok := readString(d); ok && message == "" {
				message = s
			}
			return nil
		case "errors":
			if d.Next() != jx.Array {
				return d.Skip()
			}
			first := true
			return d.Arr(func(d *jx.Decoder) error {
				if !first || d.Next() != jx.Object {
					return d.Skip()
				}
				first = false
				return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
					switch string(key) {
					case "error_code":
						if s, ok := readString(d); ok {
							code = s
						}
						return nil
					case "message":
						if s, ok := readString(d); ok {
							message = s
						}
						return nil
					}
					return d.Skip()
				})
			})
		}
		return d.Skip()
	})
	return code, message
}

func readString(d *jx.Decoder) (string, bool) {
	if d.Next() != jx.String {
		_ = d.Skip()
		return "", false
	}
	s, err := d.Str()
	return s, err == nil
}
