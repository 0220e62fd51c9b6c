package session

// DeviceInfo is best-effort metadata classified from the raw user-agent
// string. It is never a security control.
type DeviceInfo struct {
	Browser string `json:"browser"`
	OS      string `json:"os"`
	Device  string `json:"device"`
}

// Session represents one authenticated device/browser binding. A session is
// created active, may be refreshed any number of times, and is terminal once
// inactive — it is never reactivated.
//
// Timestamps are Unix seconds.
type Session struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`

	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	DeviceInfo DeviceInfo `json:"device_info"`

	IsActive   bool `json:"is_active"`
	RememberMe bool `json:"remember_me"`

	LastActivity int64 `json:"last_activity"`
	ExpiresAt    int64 `json:"expires_at"`
	CreatedAt    int64 `json:"created_at"`
}
