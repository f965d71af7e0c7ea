package model

import (
	"context"

	"github.com/Prompt-Haus/OpenVTO/internal/entity"
)

// Repository is the relay's persistence boundary for generation records.
type Repository interface {
	CreateGenerationRecord(ctx context.Context, record *entity.DbGenerationRecord) error
	UpdateGenerationRecord(ctx context.Context, id uint, updates entity.GenerationRecordUpdates) error
	GetGenerationRecord(ctx context.Context, id uint) (*entity.DbGenerationRecord, error)
	ListGenerationRecords(ctx context.Context, params *entity.GenerationRecordQuery) ([]entity.DbGenerationRecord, *entity.Meta, error)
	DeleteGenerationRecord(ctx context.Context, id uint) error
}
