package fetcher

import (
	"regexp"
	"strings"
)

// Query parameter names the remote source accepts for each identity kind.
const (
	IdentityEmail  = "email"
	IdentityMobile = "mobile"
)

var (
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	mobilePattern = regexp.MustCompile(`^\d{10,15}$`)
)

// Classify maps a credential string to the query parameter it should be
// sent under. Phone numbers are digits only, 10 to 15 of them. Anything
// unrecognized reports false: callers skip the fetch silently, since an
// unidentifiable shopper is not an error.
func Classify(credentials string) (string, bool) {
	credentials = strings.TrimSpace(credentials)

	switch {
	case credentials == "":
		return "", false
	case emailPattern.MatchString(credentials):
		return IdentityEmail, true
	case mobilePattern.MatchString(credentials):
		return IdentityMobile, true
	default:
		return "", false
	}
}
