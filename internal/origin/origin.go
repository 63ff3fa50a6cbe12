// Package origin guesses whether a request comes from a browser or a
// command-line tool, based only on the request's Accept header.
package origin

import (
	"strconv"
	"strings"
)

// Origin is the judged source of a request.
type Origin int

const (
	// CLI covers curl, wget, scripts: plain-text responses, status
	// codes as the primary signal.
	CLI Origin = iota
	// Browser gets HTML pages, redirects and flash messages.
	Browser
)

func (o Origin) String() string {
	if o == Browser {
		return "browser"
	}
	return "cli"
}

// Classify picks the highest-weighted media type out of an Accept
// header value and maps it to an Origin. Only text/html and
// application/signed-exchange count as Browser; anything else,
// including an absent or unparseable header, is CLI. This is a
// heuristic: a CLI tool sending "Accept: text/html" will be treated
// as a browser.
func Classify(accept string) Origin {
	switch bestMediaType(accept) {
	case "text/html", "application/signed-exchange":
		return Browser
	}
	return CLI
}

// bestMediaType returns the media type with the highest q-value,
// parameters stripped. Earlier entries win ties, matching how
// browsers order their preferences.
func bestMediaType(accept string) string {
	best := ""
	bestQ := -1.0
	for _, part := range strings.Split(accept, ",") {
		mediaType, params, _ := strings.Cut(part, ";")
		mediaType = strings.ToLower(strings.TrimSpace(mediaType))
		if mediaType == "" {
			continue
		}
		q := qValue(params)
		if q > bestQ {
			best = mediaType
			bestQ = q
		}
	}
	return best
}

// qValue extracts the q parameter from a media type's parameter list.
// Missing or malformed values default to 1, the HTTP default.
func qValue(params string) float64 {
	for _, param := range strings.Split(params, ";") {
		key, value, ok := strings.Cut(param, "=")
		if !ok || strings.TrimSpace(key) != "q" {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || q < 0 || q > 1 {
			return 1
		}
		return q
	}
	return 1
}
