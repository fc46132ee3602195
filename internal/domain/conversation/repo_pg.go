package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/virtualclinic/api/internal/platform/db"
)

type repoPG struct{ src db.Source }

func NewRepoPG(src db.Source) Repository {
	return &repoPG{src: src}
}

func (r *repoPG) conn(ctx context.Context) (db.Querier, error) {
	pool, err := r.src.Pool(ctx)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

const convCols = `id, patient_id, task_type::text, created_at, updated_at, metadata`

func scanConversation(row pgx.Row) (*Conversation, error) {
	var c Conversation
	err := row.Scan(&c.ID, &c.PatientID, &c.TaskType, &c.CreatedAt, &c.UpdatedAt, &c.Metadata)
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Conversation) error {
	q, err := r.conn(ctx)
	if err != nil {
		return err
	}
	err = q.QueryRow(ctx, `
		INSERT INTO conversations (patient_id, task_type, metadata)
		VALUES ($1, $2::task_type, $3)
		RETURNING id, created_at, updated_at`,
		c.PatientID, string(c.TaskType), c.Metadata,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	q, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	c, err := scanConversation(q.QueryRow(ctx, `SELECT `+convCols+` FROM conversations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*ListItem, int, error) {
	q, err := r.conn(ctx)
	if err != nil {
		return nil, 0, err
	}

	var where []string
	var args []interface{}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		where = append(where, fmt.Sprintf("c.patient_id = $%d", len(args)))
	}
	if f.TaskType != "" {
		args = append(args, string(f.TaskType))
		where = append(where, fmt.Sprintf("c.task_type = $%d::task_type", len(args)))
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM conversations c`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count conversations: %w", err)
	}

	query := `SELECT c.id, c.patient_id, p.first, p.last, c.task_type::text, c.created_at, c.updated_at, c.metadata
		FROM conversations c LEFT JOIN patients p ON p.id = c.patient_id` + whereClause +
		fmt.Sprintf(` ORDER BY c.created_at DESC, c.id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := q.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	items := []*ListItem{}
	for rows.Next() {
		var it ListItem
		var first, last *string
		if err := rows.Scan(&it.ID, &it.PatientID, &first, &last, &it.TaskType,
			&it.CreatedAt, &it.UpdatedAt, &it.Metadata); err != nil {
			return nil, 0, fmt.Errorf("scan conversation: %w", err)
		}
		it.PatientName = displayName(first, last)
		items = append(items, &it)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Messages(ctx context.Context, conversationID uuid.UUID) ([]*Message, error) {
	q, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, `
		SELECT id, conversation_id, role::text, content, created_at
		FROM messages WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	msgs := []*Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

func (r *repoPG) AddMessage(ctx context.Context, m *Message) error {
	q, err := r.conn(ctx)
	if err != nil {
		return err
	}
	err = q.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, role, content)
		VALUES ($1, $2::message_role, $3)
		RETURNING id, created_at`,
		m.ConversationID, string(m.Role), m.Content,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert %s message: %w", m.Role, err)
	}
	return nil
}

func (r *repoPG) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	q, err := r.conn(ctx)
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx, `UPDATE conversations SET updated_at = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

func displayName(first, last *string) string {
	if first == nil || last == nil || *first == "" || *last == "" {
		return unknownPatient
	}
	return *first + " " + *last
}
