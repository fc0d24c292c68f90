// Package device turns User-Agent strings into short display labels for
// session listings. Labels are cosmetic; nothing authorizes on them.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// ParseUserAgent renders a label such as "Chrome on Mac OS X" or
// "Safari on iPhone". Unparseable input maps to "Unknown Device".
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return unknownDevice
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()

	osName := ua.OSInfo().Name
	if osName == "" {
		osName = ua.Platform()
	}

	switch {
	case browser == "" && osName == "":
		return unknownDevice
	case browser == "":
		return osName
	case osName == "":
		return browser
	default:
		return browser + " on " + osName
	}
}
