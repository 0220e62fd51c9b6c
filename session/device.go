package session

import "strings"

// ParseUserAgent classifies a raw user-agent string by substring match.
// Anything unrecognized falls back to "Unknown". The result is approximate
// display metadata only.
func ParseUserAgent(userAgent string) DeviceInfo {
	info := DeviceInfo{Browser: "Unknown", OS: "Unknown", Device: "Desktop"}

	switch {
	case strings.Contains(userAgent, "Chrome"):
		info.Browser = "Chrome"
	case strings.Contains(userAgent, "Firefox"):
		info.Browser = "Firefox"
	case strings.Contains(userAgent, "Safari"):
		info.Browser = "Safari"
	}

	switch {
	case strings.Contains(userAgent, "Windows"):
		info.OS = "Windows"
	case strings.Contains(userAgent, "Mac"):
		info.OS = "macOS"
	case strings.Contains(userAgent, "Linux"):
		info.OS = "Linux"
	case strings.Contains(userAgent, "Android"):
		info.OS = "Android"
	case strings.Contains(userAgent, "iOS"):
		info.OS = "iOS"
	}

	if strings.Contains(userAgent, "Mobile") {
		info.Device = "Mobile"
	}

	return info
}
