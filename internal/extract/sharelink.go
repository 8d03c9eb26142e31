package extract

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidLink means no share ID could be found in the supplied link.
// It is the only extraction error surfaced to callers; the chain never
// touches the network without a share ID.
var ErrInvalidLink = errors.New("invalid share link format")

var (
	shareIDAnchored   = regexp.MustCompile(`/shr([a-zA-Z0-9]+)`)
	shareIDUnanchored = regexp.MustCompile(`shr([a-zA-Z0-9]+)`)
	lastPathSegment   = regexp.MustCompile(`/([a-zA-Z0-9]+)$`)
	shareIDDirect     = regexp.MustCompile(`shr[a-zA-Z0-9]+`)
)

// ExtractShareID pulls the shr-prefixed share token out of a viewable
// link, trying a path-anchored pattern, an unanchored one, the last path
// segment (accepted only if it already carries the prefix), and finally a
// direct search anywhere in the link.
func ExtractShareID(link string) (string, error) {
	link = strings.TrimSpace(link)

	if m := shareIDAnchored.FindStringSubmatch(link); m != nil {
		return "shr" + m[1], nil
	}
	if m := shareIDUnanchored.FindStringSubmatch(link); m != nil {
		return "shr" + m[1], nil
	}
	if m := lastPathSegment.FindStringSubmatch(link); m != nil && strings.HasPrefix(m[1], "shr") {
		return m[1], nil
	}
	if m := shareIDDirect.FindString(link); m != "" {
		return m, nil
	}

	return "", ErrInvalidLink
}
