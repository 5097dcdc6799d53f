package generation

type EventType string

const (
	EventStarted   EventType = "started"
	EventProgress  EventType = "progress"
	EventChunk     EventType = "chunk"
	EventCompleted EventType = "completed"
	EventError     EventType = "error"
)

// Event is one frame of a generation stream. Exactly one of completed or
// error ends a stream, unless the caller cancelled it first.
type Event struct {
	Type            EventType `json:"type"`
	Message         string    `json:"message,omitempty"`
	Percent         int       `json:"percent,omitempty"`
	Text            string    `json:"text,omitempty"`
	ComplianceScore *int      `json:"compliance_score,omitempty"`
	Compliant       *bool     `json:"compliant,omitempty"`
	SubmissionID    string    `json:"submission_id,omitempty"`
}

func (e Event) Terminal() bool {
	return e.Type == EventCompleted || e.Type == EventError
}
