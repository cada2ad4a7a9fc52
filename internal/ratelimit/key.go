package ratelimit

import "strings"

// LoginKey builds the limiter key for login attempts from one client address.
func LoginKey(clientIP string) string {
	clientIP = strings.TrimSpace(clientIP)
	if clientIP == "" {
		return ""
	}
	return "login:ip:" + clientIP
}
