package models

import "time"

// Question is asked by one user and addressed to one expert.
// It counts as answered once AnswerText is set.
type Question struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	QuestionText string    `gorm:"type:text;not null" json:"question_text"`

	AskedByID uint  `gorm:"index;not null" json:"asked_by_id"`
	AskedBy   *User `gorm:"foreignKey:AskedByID" json:"-"`

	// ExpertID is the addressed expert. Nothing below the UI checks that the
	// referenced user actually has Expert set.
	ExpertID uint  `gorm:"index;not null" json:"expert_id"`
	Expert   *User `gorm:"foreignKey:ExpertID" json:"-"`

	AnswerText *string `gorm:"type:text" json:"answer_text,omitempty"`
}

// IsAnswered reports whether an answer has been recorded.
func (q *Question) IsAnswered() bool {
	return q.AnswerText != nil
}

// GetExpertID returns the addressed expert, for addressee-based authorization.
func (q *Question) GetExpertID() uint {
	return q.ExpertID
}

// AnsweredQuestion is a row of the public home listing.
type AnsweredQuestion struct {
	QuestionID   uint   `json:"question_id"`
	QuestionText string `json:"question_text"`
	AskerName    string `json:"asker_name"`
	ExpertName   string `json:"expert_name"`
}

// QuestionDetail is a single answered question with both participants resolved.
type QuestionDetail struct {
	ID           uint   `json:"id"`
	QuestionText string `json:"question_text"`
	AnswerText   string `json:"answer_text"`
	AskerName    string `json:"asker_name"`
	ExpertName   string `json:"expert_name"`
}

// UnansweredQuestion is a row of an expert's inbox.
type UnansweredQuestion struct {
	ID           uint   `json:"id"`
	QuestionText string `json:"question_text"`
	AskerName    string `json:"asker_name"`
}
