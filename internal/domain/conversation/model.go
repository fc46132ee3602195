package conversation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/virtualclinic/api/internal/domain/prompt"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation is one interview with a simulated patient. TaskType is fixed
// at creation.
type Conversation struct {
	ID        uuid.UUID       `json:"id"`
	PatientID uuid.UUID       `json:"patientId"`
	TaskType  prompt.TaskType `json:"taskType"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Metadata  *string         `json:"metadata"`
}

type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"-"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ListItem is a conversation joined with its patient's name.
type ListItem struct {
	ID          uuid.UUID       `json:"id"`
	PatientID   uuid.UUID       `json:"patientId"`
	PatientName string          `json:"patientName"`
	TaskType    prompt.TaskType `json:"taskType"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Metadata    *string         `json:"metadata"`
}

// ListFilter narrows a listing. Zero values match everything.
type ListFilter struct {
	PatientID *uuid.UUID
	TaskType  prompt.TaskType
}

// Created is the body returned when a conversation is started.
type Created struct {
	ID          uuid.UUID       `json:"id"`
	PatientID   uuid.UUID       `json:"patientId"`
	TaskType    prompt.TaskType `json:"taskType"`
	PatientName string          `json:"patientName"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Detail is a conversation with its full transcript, oldest message first.
type Detail struct {
	ID          uuid.UUID       `json:"id"`
	PatientID   uuid.UUID       `json:"patientId"`
	PatientName string          `json:"patientName"`
	TaskType    prompt.TaskType `json:"taskType"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Metadata    *string         `json:"metadata"`
	Messages    []*Message      `json:"messages"`
}

// Reply is the assistant turn produced by SendMessage.
type Reply struct {
	ConversationID uuid.UUID `json:"conversationId"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
}

type CreateRequest struct {
	PatientID string  `json:"patientId" validate:"required,uuid" messages:"uuid=patientId must be a valid UUID"`
	TaskType  string  `json:"taskType" validate:"required,oneof=diagnosis treatment event"`
	Metadata  *string `json:"metadata"`
}

// MaxMessageLength is counted in characters, not bytes.
const MaxMessageLength = 4096

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4096" messages:"required=Message content cannot be empty;max=Message content too long (max 4096 characters)"`
}

// NotFoundError names the missing conversation or patient. Its message is
// shown to clients as is.
type NotFoundError struct {
	Kind string
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

const unknownPatient = "Unknown"
