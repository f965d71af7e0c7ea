package sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/Prompt-Haus/OpenVTO/internal/entity"
	"gorm.io/gorm"
)

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new repository instance
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) calculatePagination(totalCount int64, page, pageSize int) *entity.Meta {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}

	return &entity.Meta{
		Total:    totalCount,
		Page:     int64(page),
		PageSize: int64(pageSize),
	}
}

// CreateGenerationRecord inserts a new generation record.
func (r *GormRepository) CreateGenerationRecord(ctx context.Context, record *entity.DbGenerationRecord) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// UpdateGenerationRecord applies the set fields of a partial update.
func (r *GormRepository) UpdateGenerationRecord(ctx context.Context, id uint, updates entity.GenerationRecordUpdates) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid generation record id")
	}
	if updates.IsEmpty() {
		return fmt.Errorf("no updates provided")
	}
	return r.db.WithContext(ctx).Model(&entity.DbGenerationRecord{}).Where("id = ?", id).Updates(updates.ToMap()).Error
}

// GetGenerationRecord retrieves a single record by ID.
func (r *GormRepository) GetGenerationRecord(ctx context.Context, id uint) (*entity.DbGenerationRecord, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid generation record id")
	}

	var record entity.DbGenerationRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load generation record: %w", err)
	}
	return &record, nil
}

// ListGenerationRecords retrieves paginated records, newest first.
func (r *GormRepository) ListGenerationRecords(ctx context.Context, params *entity.GenerationRecordQuery) ([]entity.DbGenerationRecord, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbGenerationRecord{})
	if params != nil {
		if trimmed := strings.TrimSpace(params.Kind); trimmed != "" {
			query = query.Where("kind = ?", trimmed)
		}
		if trimmed := strings.ToLower(strings.TrimSpace(params.Result)); trimmed != "" && trimmed != "all" {
			switch trimmed {
			case "success":
				query = query.Where("(error_message IS NULL OR error_message = '')")
			case "failure":
				query = query.Where("error_message IS NOT NULL AND error_message <> ''")
			}
		}
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, nil, err
	}

	page := 1
	pageSize := 20
	if params != nil {
		if params.Page > 0 {
			page = int(params.Page)
		}
		if params.PageSize > 0 {
			pageSize = int(params.PageSize)
		}
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	var records []entity.DbGenerationRecord
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&records).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(totalCount, page, pageSize)
	return records, meta, nil
}

// DeleteGenerationRecord removes a record by ID.
func (r *GormRepository) DeleteGenerationRecord(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid generation record id")
	}

	result := r.db.WithContext(ctx).Delete(&entity.DbGenerationRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
