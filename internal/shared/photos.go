package shared

import (
	"fmt"
	"net/url"
	"strings"
)

// CleanPhotoURLs trims urls and rejects anything that is not an absolute
// http(s) link. A nil input yields an empty slice.
func CleanPhotoURLs(urls []string) ([]string, error) {
	clean := make([]string, 0, len(urls))
	for _, raw := range urls {
		raw = strings.TrimSpace(raw)
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, fmt.Errorf("%w: invalid photo url %q", ErrValidation, raw)
		}
		clean = append(clean, raw)
	}
	return clean, nil
}
