package shared

import (
	"net/http"

	"fitbusiness/internal/domain/audit"
	"fitbusiness/internal/domain/auth"
	"fitbusiness/internal/platform/logging"
	"fitbusiness/internal/requestctx"
)

func AuditActor(r *http.Request, user auth.UserContext) audit.Actor {
	return audit.Actor{
		UserID:    user.UserID,
		Role:      string(user.Role),
		RequestID: requestctx.GetRequestID(r.Context()),
		IP:        ClientIP(r),
	}
}

// RecordAudit writes an audit event. Failures are logged and never fail the
// request that caused them.
func RecordAudit(r *http.Request, svc *audit.Service, user auth.UserContext, companyID, action, entityType, entityID string, before, after any) {
	if svc == nil {
		return
	}
	if err := svc.Record(r.Context(), companyID, AuditActor(r, user), action, entityType, entityID, before, after); err != nil {
		logging.FromContext(r.Context()).Warn("audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}
