package db

import (
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type PrintJob struct {
	ID             string    `json:"id"`
	SubmitterID    string    `json:"submitter_id"`
	SubmitterEmail string    `json:"submitter_email"`
	SubmitterRole  string    `json:"submitter_role"`
	SlotID         string    `json:"slot_id"`
	FilesJSON      string    `json:"files_json"`
	Copies         int       `json:"copies"`
	ColorMode      string    `json:"color_mode"`
	Sided          string    `json:"sided"`
	Stapled        bool      `json:"stapled"`
	Instructions   string    `json:"instructions"`
	Status         string    `json:"status"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type JobFilter struct {
	Statuses    []string
	SubmitterID string
	OrderAsc    bool
	Limit       int
	Offset      int
}

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Encrypted bool      `json:"encrypted"`
	UpdatedAt time.Time `json:"updated_at"`
}
