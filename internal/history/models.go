package history

import "time"

// Record is one job as remembered across CLI invocations.
type Record struct {
	ID          string
	Kind        string
	InputPaths  []string
	Status      string
	Message     string
	PayloadJSON string
	CreatedAt   time.Time
	FinishedAt  *time.Time
}
