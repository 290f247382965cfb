package auth

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// AuditLogger writes security events as structured log entries
type AuditLogger struct {
	logger  logrus.FieldLogger
	proxies *ProxyTrust
}

// NewAuditLogger creates an audit logger. A nil logger discards events.
// proxies decides whose forwarding headers are recorded as the caller's
// address and may be nil.
func NewAuditLogger(logger logrus.FieldLogger, proxies *ProxyTrust) *AuditLogger {
	return &AuditLogger{logger: logger, proxies: proxies}
}

// AuditEvent describes a single security relevant action
type AuditEvent struct {
	Action       string
	Actor        string
	ResourceType string
	ResourceID   string
	Status       string
	Reason       string
}

// Log records an event
func (al *AuditLogger) Log(event AuditEvent) {
	if al == nil || al.logger == nil {
		return
	}

	fields := logrus.Fields{
		"audit":  true,
		"action": event.Action,
		"status": event.Status,
	}
	if event.Actor != "" {
		fields["actor"] = event.Actor
	}
	if event.ResourceType != "" {
		fields["resource_type"] = event.ResourceType
	}
	if event.ResourceID != "" {
		fields["resource_id"] = event.ResourceID
	}
	if event.Reason != "" {
		fields["reason"] = event.Reason
	}

	entry := al.logger.WithFields(fields)
	if event.Status == StatusSuccess {
		entry.Info("audit event")
	} else {
		entry.Warn("audit event")
	}
}

// LogFromRequest records an event enriched with the caller's address and
// user agent
func (al *AuditLogger) LogFromRequest(r *http.Request, event AuditEvent) {
	if al == nil || al.logger == nil {
		return
	}
	enriched := &AuditLogger{logger: al.logger.WithFields(logrus.Fields{
		"ip_address": al.proxies.ClientIP(r),
		"user_agent": r.UserAgent(),
	})}
	enriched.Log(event)
}

// Audit action names
const (
	ActionSignup          = "user.signup"
	ActionLogin           = "user.login"
	ActionUserRead        = "user.read"
	ActionUserUpdate      = "user.update"
	ActionFavoriteAdd     = "favorite.add"
	ActionFavoriteRemove  = "favorite.remove"
	ActionStoryCreate     = "story.create"
	ActionStoryDelete     = "story.delete"
	ActionAuthFailure     = "auth.failure"
	ActionRateLimitExceed = "ratelimit.exceeded"
)

// Audit statuses
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusDenied  = "denied"
)
