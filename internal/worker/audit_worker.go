package worker

import (
	"github.com/spec-kit/flight-agent/internal/service"
)

// StartAuditWorker registers audit handlers.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}
