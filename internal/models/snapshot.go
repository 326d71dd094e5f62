package models

import "time"

// Snapshot is one stored result of fetching the project collection.
type Snapshot struct {
	ID        string
	Source    string
	FetchedAt time.Time
	Projects  []Project
}

// Preference is a single persisted key/value view preference.
type Preference struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
