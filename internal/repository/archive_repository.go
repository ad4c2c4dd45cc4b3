package repository

import (
	"map_survey_backend/internal/model"

	"gorm.io/gorm"
)

// ArchiveRepository mirrors graded and disagreeing responses into MySQL for
// the downstream analysis pipeline.
type ArchiveRepository struct {
	DB *gorm.DB
}

func NewArchiveRepository(db *gorm.DB) *ArchiveRepository {
	return &ArchiveRepository{DB: db}
}

func (r *ArchiveRepository) SaveEvalRecords(records []model.EvalRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.DB.Create(&records).Error
}

func (r *ArchiveRepository) SaveDisagreements(records []model.DisagreementRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.DB.Create(&records).Error
}

func (r *ArchiveRepository) ListEvalRecords(pid, ds string, limit int) ([]model.EvalRecord, error) {
	var out []model.EvalRecord
	query := r.DB.Model(&model.EvalRecord{})
	if pid != "" {
		query = query.Where("prolific_id = ?", pid)
	}
	if ds != "" {
		query = query.Where("dataset = ?", ds)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("created_at desc").Find(&out).Error
	return out, err
}
