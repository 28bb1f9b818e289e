package models

import "time"

// Submission outcomes recorded in the audit trail.
const (
	OutcomeSaved            = "saved"
	OutcomeRejected         = "rejected"
	OutcomeUpstreamFailed   = "upstream_failed"
	OutcomePersistFailed    = "persist_failed"
	OutcomeEmptyAIResponse  = "empty_ai_response"
	OutcomeUpstreamRejected = "upstream_rejected"
)

// SubmissionEvent is one audit document per submission attempt, stored in
// MongoDB. Writes are fire-and-forget; the trail is best-effort by design.
type SubmissionEvent struct {
	FirebaseUID  string    `bson:"firebase_uid,omitempty" json:"-"`
	Filename     string    `bson:"filename" json:"filename"`
	AnalysisType string    `bson:"analysis_type" json:"analysis_type"`
	Outcome      string    `bson:"outcome" json:"outcome"`
	Score        int       `bson:"score" json:"score"`
	AnalysisID   string    `bson:"analysis_id,omitempty" json:"analysis_id,omitempty"`
	Timestamp    time.Time `bson:"timestamp" json:"timestamp"`
}
