// Package device turns a User-Agent header into the short client device label
// stored on audit rows ("Chrome on macOS").
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// Label returns a display label for userAgent.
func Label(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return unknownDevice
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	if ua.Bot() {
		return browser + " (bot)"
	}
	return browser + " on " + osName(ua)
}

func osName(ua *useragent.UserAgent) string {
	switch p := ua.Platform(); p {
	case "iPhone", "iPad", "iPod":
		return p
	}
	name := ua.OSInfo().Name
	switch {
	case name == "":
		return "Unknown OS"
	case strings.Contains(name, "Mac OS X"):
		return "macOS"
	case strings.HasPrefix(name, "Windows"):
		return "Windows"
	default:
		return name
	}
}
