package storage

import "time"

// Document records one source file ingested into a vector collection.
type Document struct {
	ID         string // UUID
	Collection string
	Source     string // Path as given to the ingester
	Hash       string // SHA256 hex string of file content
	Chunks     int
	IngestedAt time.Time
}
