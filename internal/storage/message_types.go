package storage

import "time"

// CandidateCreatedEvent 候选人入库事件，经outbox中继发布到RabbitMQ
type CandidateCreatedEvent struct {
	CandidateID    string    `json:"candidate_id"`
	OwnerUserID    string    `json:"owner_user_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	BestMatchJobID string    `json:"best_match_job_id,omitempty"`
	BestMatchScore int       `json:"best_match_score"`
	CreatedAt      time.Time `json:"created_at"`
}
