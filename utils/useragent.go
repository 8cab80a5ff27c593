package utils

import (
	"fmt"
	"strings"

	ua "github.com/mileusna/useragent"
)

// ParseUserAgent extracts useful information from User-Agent string
func ParseUserAgent(userAgent string) (browser, os, device string) {
	if userAgent == "" {
		return "Unknown Browser", "Unknown OS", "Desktop"
	}

	parsed := ua.Parse(userAgent)

	browser = strings.TrimSpace(parsed.Name)
	if browser == "" {
		browser = "Unknown Browser"
	}
	os = strings.TrimSpace(parsed.OS)
	if os == "" {
		os = "Unknown OS"
	}

	device = "Desktop"
	switch {
	case parsed.Mobile && strings.Contains(userAgent, "iPhone"):
		device = "iPhone"
	case parsed.Mobile:
		device = "Mobile"
	case parsed.Tablet:
		device = "Tablet"
	case parsed.Bot:
		device = "Bot"
	}
	return browser, os, device
}

// DeviceLabel renders a user agent as "Browser on OS (Device)" for token records.
func DeviceLabel(userAgent string) string {
	browser, os, device := ParseUserAgent(userAgent)
	return fmt.Sprintf("%s on %s (%s)", browser, os, device)
}
