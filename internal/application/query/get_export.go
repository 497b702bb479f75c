package query

import (
	"context"

	"github.com/roshankumarc210506-arch/learnsphere/internal/application/session"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
)

// GetExportHandler выгружает прогресс студента.
type GetExportHandler struct {
	store session.ProgressStore
	live  LiveSessions
}

// NewGetExportHandler создаёт обработчик.
func NewGetExportHandler(store session.ProgressStore, live LiveSessions) *GetExportHandler {
	return &GetExportHandler{store: store, live: live}
}

// Handle возвращает документ выгрузки.
func (h *GetExportHandler) Handle(ctx context.Context, query GetSummaryQuery) (*progress.ExportDocument, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetExport", shared.ErrValidation, err.Error(), err)
	}

	state, err := loadState(ctx, h.store, h.live, query.Username)
	if err != nil {
		return nil, err
	}

	doc := progress.Export(state)
	return &doc, nil
}
