package models

import (
	"encoding/json"
	"errors"
)

// ErrNoMessage is returned when the queue is empty
var ErrNoMessage = errors.New("no messages in queue")

// MessageTypeAnalyze routes a message to the complaint analysis pipeline
const MessageTypeAnalyze = "analyze"

// QueueMessage is the structure stored in the queue.
// Keep it simple - just enough to route the job.
type QueueMessage struct {
	JobID   string          `json:"job_id"`            // References Job.ID
	Type    string          `json:"type"`              // Message type for handler routing
	Payload json.RawMessage `json:"payload,omitempty"` // Type-specific data (passed through)
}
