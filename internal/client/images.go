package client

import "strings"

// ImageURL rewrites absolute backend upload URLs to the relative
// /uploads/ path the kiosk proxies, avoiding mixed content.
func ImageURL(u string) string {
	if i := strings.LastIndex(u, "/uploads/"); i >= 0 {
		return u[i:]
	}
	return u
}
