package models

import "time"

// TodoItem is a private note owned by one staff member
type TodoItem struct {
	ID        string    `json:"id"`
	StaffID   string    `json:"staffId"`
	Task      string    `json:"task"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// TodoInput is the payload for adding a todo
type TodoInput struct {
	Task string `json:"task" binding:"required"`
}

// BackupLog is one line of the export/import/sync audit trail
type BackupLog struct {
	Date   time.Time `json:"date"`
	Status string    `json:"status"`
}

// Credential holds the hashed passcode of a user who has set one
type Credential struct {
	UserID    string    `json:"userId"`
	Hash      string    `json:"hash"`
	UpdatedAt time.Time `json:"updatedAt"`
}
