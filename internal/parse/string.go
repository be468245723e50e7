package parse

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/JonMunkholm/tablecheck/internal/schema"
)

var (
	// emailLocalPart matches one dot-separated segment of the local part.
	emailLocalPart = regexp.MustCompile("^[a-zA-Z0-9!#$%&'*+\\-/=?^_`{|}~]+$")
	dnsLabel       = regexp.MustCompile(`(?i)^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	uriRegex  = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.-]*:(?://\S+|[^\s/]\S*)$`)
	uuidRegex = regexp.MustCompile(`(?i)^[a-f0-9]{8}-?[a-f0-9]{4}-?[a-f0-9]{4}-?[a-f0-9]{4}-?[a-f0-9]{12}$`)
)

func stringConverter(format string) (converter, error) {
	var valid func(string) bool
	switch format {
	case schema.FormatDefault:
		return func(s string) (any, bool) { return s, true }, nil
	case schema.FormatEmail:
		valid = isEmail
	case schema.FormatURI:
		valid = uriRegex.MatchString
	case schema.FormatUUID:
		valid = uuidRegex.MatchString
	case schema.FormatBinary:
		valid = isBase64
	default:
		return nil, fmt.Errorf("%w: %q for type string", schema.ErrUnknownFormat, format)
	}
	return func(s string) (any, bool) {
		if !valid(s) {
			return nil, false
		}
		return s, true
	}, nil
}

// isEmail accepts addresses whose local part has at most 64 characters from
// the unquoted atom alphabet, with single dots that neither lead nor trail,
// and whose domain has at least two DNS labels of at most 63 characters.
// Comments, quoted local parts, IP literals and IDNs are not accepted.
func isEmail(s string) bool {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || strings.Contains(domain, "@") {
		return false
	}
	if local == "" || len(local) > 64 {
		return false
	}
	for _, part := range strings.Split(local, ".") {
		if !emailLocalPart.MatchString(part) {
			return false
		}
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) > 63 || !dnsLabel.MatchString(label) {
			return false
		}
	}
	return true
}

// isBase64 reports whether s is padded standard base64 once whitespace is
// removed.
func isBase64(s string) bool {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	_, err := base64.StdEncoding.DecodeString(compact)
	return err == nil
}
