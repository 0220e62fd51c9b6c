package audit

import "time"

// Action is the fixed enumeration of auditable activities.
type Action string

const (
	ActionLogin                 Action = "LOGIN"
	ActionLogout                Action = "LOGOUT"
	ActionRegister              Action = "REGISTER"
	ActionPasswordChange        Action = "PASSWORD_CHANGE"
	ActionProfileUpdate         Action = "PROFILE_UPDATE"
	ActionProfileView           Action = "PROFILE_VIEW"
	ActionAdminAccess           Action = "ADMIN_ACCESS"
	ActionSystemAccess          Action = "SYSTEM_ACCESS"
	ActionFileUpload            Action = "FILE_UPLOAD"
	ActionPasswordResetRequest  Action = "PASSWORD_RESET_REQUEST"
	ActionPasswordResetComplete Action = "PASSWORD_RESET_COMPLETE"
	ActionFailedLogin           Action = "FAILED_LOGIN"
	ActionAccountLocked         Action = "ACCOUNT_LOCKED"
	ActionAccountUnlocked       Action = "ACCOUNT_UNLOCKED"
	ActionSessionEvicted        Action = "SESSION_EVICTED"
	ActionSecurityAlert         Action = "SECURITY_ALERT"
)

// Severity grades a record for triage.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Record is one append-only audit entry. Created once, immutable thereafter;
// purged only by the explicit retention cleanup.
//
// UserID is empty for anonymous/security events. AdditionalData is an opaque
// structured payload — sensitive fields must be redacted by the caller before
// the record is emitted.
type Record struct {
	ID             string                 `json:"id"`
	UserID         string                 `json:"user_id,omitempty"`
	Username       string                 `json:"username"`
	Action         Action                 `json:"action"`
	Description    string                 `json:"description"`
	IPAddress      string                 `json:"ip_address"`
	UserAgent      string                 `json:"user_agent"`
	Method         string                 `json:"method"`
	Endpoint       string                 `json:"endpoint"`
	StatusCode     int                    `json:"status_code"`
	ResponseTimeMs int64                  `json:"response_time_ms"`
	Severity       Severity               `json:"severity"`
	AdditionalData map[string]interface{} `json:"additional_data,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}
