// Package redact masks sensitive request parameters before they reach a log.
//
// Only top-level parameter names are screened. A nested value is passed
// through untouched even when it contains sensitive keys of its own.
package redact

import "strings"

// Mask replaces the value of every sensitive parameter.
const Mask = "xxxxxx..."

// Built-in sensitive parameter names, compared case-insensitively.
var defaultKeys = []string{
	"password",
	"pass",
	"access_key",
	"access_token",
	"token",
	"key",
	"secret",
	"login",
	"api_key",
	"hash",
}

// Redactor masks parameters whose name is in its key set.
type Redactor struct {
	keys map[string]struct{}
}

// New creates a Redactor with the built-in keys plus any extra keys.
// Extra keys extend the set; built-in keys cannot be removed.
func New(extra ...string) *Redactor {
	r := &Redactor{keys: make(map[string]struct{}, len(defaultKeys)+len(extra))}
	for _, k := range defaultKeys {
		r.keys[k] = struct{}{}
	}
	for _, k := range extra {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			r.keys[k] = struct{}{}
		}
	}
	return r
}

var std = New()

// Redact masks params with the built-in key set.
func Redact(params map[string]any) map[string]any {
	return std.Redact(params)
}

// IsSensitive reports whether key is in the built-in key set.
func IsSensitive(key string) bool {
	return std.IsSensitive(key)
}

// Redact returns a copy of params with sensitive values replaced by Mask.
// The input map is never modified. A nil or empty input yields an empty map.
func (r *Redactor) Redact(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if r.IsSensitive(k) {
			out[k] = Mask
			continue
		}
		out[k] = v
	}
	return out
}

// IsSensitive reports whether the lower-cased key is in the key set.
// Matching is exact: "password_hint" is not sensitive.
func (r *Redactor) IsSensitive(key string) bool {
	_, ok := r.keys[strings.ToLower(key)]
	return ok
}
