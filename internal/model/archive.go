package model

import (
	"time"

	"gorm.io/gorm"
)

type BaseModel struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// EvalRecord mirrors one graded response into the archive database.
type EvalRecord struct {
	BaseModel
	ProlificID string  `gorm:"size:64;index:idx_eval_user_ds" json:"prolificId"`
	Dataset    string  `gorm:"size:128;index:idx_eval_user_ds" json:"dataset"`
	UID        string  `gorm:"size:64;index" json:"uid"`
	LLMEval    string  `gorm:"type:text" json:"llmEval"`
	Accuracy   float64 `json:"accuracy"`
	EvalFile   string  `gorm:"size:255" json:"evalFile"`
}

func (EvalRecord) TableName() string {
	return "eval_records"
}

// DisagreementRecord mirrors one annotator mismatch found by the pairwise
// comparison into the archive database.
type DisagreementRecord struct {
	BaseModel
	Dataset      string  `gorm:"size:128;index" json:"dataset"`
	UID          string  `gorm:"size:64;index" json:"uid"`
	FirstPID     string  `gorm:"size:64" json:"firstPid"`
	SecondPID    string  `gorm:"size:64" json:"secondPid"`
	FirstAnswer  string  `gorm:"type:text" json:"firstAnswer"`
	SecondAnswer string  `gorm:"type:text" json:"secondAnswer"`
	LLMEval      string  `gorm:"type:text" json:"llmEval"`
	Accuracy     float64 `json:"accuracy"`
}

func (DisagreementRecord) TableName() string {
	return "disagreement_records"
}
