package logging

import "strings"

// routeMarkers are the path segments after which the route becomes safe to
// log; everything before them is the user's encoded credential blob.
var routeMarkers = []string{"manifest.json", "stream", "resolve", "configure"}

// RedactPath strips the leading config segment from an addon URL path,
// keeping only the route portion. "/eyJ0bWRi.../stream/series/tt1:1:5.json"
// becomes "/stream/series/tt1:1:5.json".
func RedactPath(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, seg := range segments {
		for _, marker := range routeMarkers {
			if seg == marker {
				return "/" + strings.Join(segments[i:], "/")
			}
		}
	}
	if len(segments) > 0 && len(segments[0]) > 24 {
		return "/<config>"
	}
	return path
}

// MaskSecret replaces a credential embedded in a URL or message before it is
// logged.
func MaskSecret(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "***")
}
