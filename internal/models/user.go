package models

import "time"

// User is an identity record keyed by the Firebase UID asserted by the
// frontend. The UID is trusted as supplied; this service never verifies it.
type User struct {
	ID          string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	FirebaseUID string `gorm:"column:firebase_uid;type:text;uniqueIndex;not null" json:"firebase_uid"`
	Email       string `gorm:"column:email;type:text;uniqueIndex;not null" json:"email"`
	FullName    string `gorm:"column:full_name;type:text" json:"full_name"`

	TotalAnalyses int `gorm:"column:total_analyses;not null;default:0" json:"total_analyses"`
	BestScore     int `gorm:"column:best_score;not null;default:0" json:"best_score"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	LastLogin time.Time `gorm:"column:last_login;type:timestamptz" json:"last_login"`
}

func (User) TableName() string { return "users" }
