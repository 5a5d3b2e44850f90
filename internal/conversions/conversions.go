// Package conversions turns the loosely shaped JSON records sent by the story service into domain values.
// Every function validates the record first: a payload with missing or mistyped properties is rejected
// instead of producing a partially filled value.
package conversions

import (
	"fmt"
	"time"

	"github.com/sidereusnuntius/storyfeed/internal/remote"
	"github.com/tidwall/gjson"
)

var (
	ErrMissingProperty        = fmt.Errorf("%w: missing property", remote.ErrValidation)
	ErrUnprocessablePropValue = fmt.Errorf("%w: unprocessable property value", remote.ErrValidation)
	ErrMalformed              = fmt.Errorf("%w: malformed JSON", remote.ErrValidation)
)

// Parse validates body as JSON and returns the value at path, which must be present.
func Parse(body []byte, path string) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, ErrMalformed
	}

	r := gjson.GetBytes(body, path)
	if !r.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrMissingProperty, path)
	}
	return r, nil
}

// ErrorMessage extracts the human-readable message of an error envelope such as
// {"error":{"status":401,"title":"Unauthorized","message":"Invalid token"}}. It returns an empty string when
// the body does not follow that shape.
func ErrorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}

	e := gjson.GetBytes(body, "error")
	switch {
	case e.IsObject():
		if msg := e.Get("message"); msg.Type == gjson.String {
			return msg.String()
		}
		return e.Get("title").String()
	case e.Type == gjson.String:
		return e.String()
	}
	return ""
}

func requiredString(r gjson.Result, key string) (string, error) {
	v := r.Get(key)
	if !v.Exists() {
		return "", fmt.Errorf("%w: %s", ErrMissingProperty, key)
	}
	if v.Type != gjson.String {
		return "", fmt.Errorf("%w: %s is not a string", ErrUnprocessablePropValue, key)
	}
	if v.String() == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrUnprocessablePropValue, key)
	}
	return v.String(), nil
}

func optionalString(r gjson.Result, key string) (string, error) {
	v := r.Get(key)
	switch v.Type {
	case gjson.Null:
		return "", nil
	case gjson.String:
		return v.String(), nil
	}
	return "", fmt.Errorf("%w: %s is not a string", ErrUnprocessablePropValue, key)
}

func timestamp(r gjson.Result, key string, required bool) (time.Time, error) {
	v := r.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		if required {
			return time.Time{}, fmt.Errorf("%w: %s", ErrMissingProperty, key)
		}
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339Nano, v.String())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %s", ErrUnprocessablePropValue, key, err)
	}
	return t, nil
}
