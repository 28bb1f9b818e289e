package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type AnalysisType string

const (
	AnalysisTypeResume   AnalysisType = "RESUME"
	AnalysisTypeLinkedIn AnalysisType = "LINKEDIN"
)

// Static metadata describing which AI contract produced a record.
const (
	AnalysisVersion = "v18.0"
	AIModel         = "llama-3.3-70b"
)

// Analysis is one stored result from the AI service. Rows are immutable after
// creation and only removed through an owner-authorized delete.
type Analysis struct {
	ID     string  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID *string `gorm:"column:user_id;type:uuid;index" json:"-"`

	CandidateName string `gorm:"column:candidate_name;type:text" json:"candidate_name"`
	OverallScore  int    `gorm:"column:overall_score;not null" json:"overall_score"`

	// Verbatim upstream payload (JSONB, no truncation).
	FullAnalysisJSON datatypes.JSON `gorm:"column:full_analysis_json;type:jsonb;not null" json:"full_analysis_json"`

	ResumeFilename string  `gorm:"column:resume_filename;type:text" json:"resume_filename"`
	JobDescription *string `gorm:"column:job_description;type:text" json:"job_description,omitempty"`

	AnalysisType    AnalysisType `gorm:"column:analysis_type;type:text" json:"analysis_type"`
	AnalysisVersion string       `gorm:"column:analysis_version;type:text" json:"analysis_version"`
	AIModel         string       `gorm:"column:ai_model;type:text" json:"ai_model"`

	// Best-effort extraction of candidate_profile.current_skills; may be empty.
	SkillHighlights pq.StringArray `gorm:"column:skill_highlights;type:text[]" json:"skill_highlights,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Analysis) TableName() string { return "analyses" }
