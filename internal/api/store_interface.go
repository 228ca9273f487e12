package api

import (
	"github.com/canvasslabs/canvass/internal/models"
	"github.com/canvasslabs/canvass/internal/services"
)

// Store is the full persistence surface the HTTP layer wires into the
// services. Each service declares the narrow slice it needs; this interface
// is their union so one backend serves them all.
type Store interface {
	services.SurveyStore
	services.ValidationStore
	services.ResponseStore
	services.ResultsStore
	services.AuthStore
	services.CollaboratorStore
	services.ExportStore

	ListAudit() []models.AuditEntry
	Ping() error
}

var _ Store = (*memoryStore)(nil)
