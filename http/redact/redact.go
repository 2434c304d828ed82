// Package redact removes personal data from URLs and headers before they
// reach the logs. Postal codes, coordinates and phone numbers all travel in
// outbound query strings and bodies.
package redact

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const redacted = "[redacted]"

// PartiallyRedactString keeps the first visibleRunes runes of value and
// masks (or truncates) the rest.
func PartiallyRedactString(value string, visibleRunes int, truncate bool) string {
	runes := []rune(value)

	if len(runes) <= visibleRunes {
		return value
	}

	show := string(runes[:visibleRunes])

	if truncate {
		return show + redacted
	}

	return show + strings.Repeat("*", len(runes)-visibleRunes)
}

// Action tells Headers and URLValues what to do with a value.
type Action int

const (
	ActionKeep Action = iota
	ActionRedactFully
	ActionRedactPartialWithMask
	ActionRedactPartialTruncate
	ActionDelete
)

// Func decides the Action for one key/value pair. partialLength is used by
// the partial actions.
type Func func(ctx context.Context, key, value string) (action Action, partialLength int)

func apply(ctx context.Context, key, val string, redact Func, add func(k, v string)) {
	action, partialLen := redact(ctx, key, val)

	switch action {
	case ActionKeep:
		add(key, val)
	case ActionRedactFully:
		add(key, redacted)
	case ActionRedactPartialWithMask:
		add(key, PartiallyRedactString(val, partialLen, false))
	case ActionRedactPartialTruncate:
		add(key, PartiallyRedactString(val, partialLen, true))
	case ActionDelete:
	default:
		add(key, val)
	}
}

// Headers returns a redacted copy of headers. A nil Func clones.
func Headers(ctx context.Context, headers http.Header, redact Func) http.Header {
	if headers == nil {
		return nil
	}

	if redact == nil {
		return headers.Clone()
	}

	out := make(http.Header, len(headers))

	for key, hdrs := range headers {
		for _, val := range hdrs {
			apply(ctx, key, val, redact, out.Add)
		}
	}

	return out
}

// URLValues returns a redacted copy of values. A nil Func clones.
func URLValues(ctx context.Context, values url.Values, redact Func) url.Values {
	if values == nil {
		return nil
	}

	out := make(url.Values, len(values))

	if redact == nil {
		for key, vals := range values {
			out[key] = append([]string(nil), vals...)
		}

		return out
	}

	for key, vals := range values {
		for _, val := range vals {
			apply(ctx, key, val, redact, out.Add)
		}
	}

	return out
}

// URL returns u as a string with its query redacted.
func URL(ctx context.Context, u *url.URL, redact Func) string {
	if u == nil {
		return ""
	}

	clone := *u
	clone.User = nil
	clone.RawQuery = URLValues(ctx, u.Query(), redact).Encode()

	return clone.String()
}

// Keys returns a Func that fully redacts the named keys (case-insensitive)
// and keeps everything else.
func Keys(keys ...string) Func {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[strings.ToLower(k)] = struct{}{}
	}

	return func(_ context.Context, key, _ string) (Action, int) {
		if _, ok := set[strings.ToLower(key)]; ok {
			return ActionRedactFully, 0
		}

		return ActionKeep, 0
	}
}

// Default redacts the query parameters and headers carrying personal data
// in this service's outbound calls.
func Default() Func {
	return Keys(
		"q", "postalcode", "latitude", "longitude", "lat", "lon",
		"phone", "phone_number",
		"authorization", "cookie", "set-cookie", "x-api-key",
	)
}
