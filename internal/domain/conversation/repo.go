package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("conversation not found")

type Repository interface {
	// Create inserts c and fills in its generated ID and timestamps.
	Create(ctx context.Context, c *Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error)
	// List returns one page, newest first, and the total matching f.
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*ListItem, int, error)

	// Messages returns the transcript ordered by creation time.
	Messages(ctx context.Context, conversationID uuid.UUID) ([]*Message, error)
	AddMessage(ctx context.Context, m *Message) error
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
}
