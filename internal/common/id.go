package common

import (
	"github.com/google/uuid"
)

// NewJobID generates a unique analysis job identifier
func NewJobID() string {
	return uuid.New().String()
}

// NewMessageID generates a queue message identifier with the "msg_" prefix
func NewMessageID() string {
	return "msg_" + uuid.New().String()
}

// NewToolCallID generates an identifier for a single agent tool invocation
func NewToolCallID() string {
	return "call_" + uuid.New().String()[:8]
}
