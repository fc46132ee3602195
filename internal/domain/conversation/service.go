package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/virtualclinic/api/internal/domain/patient"
	"github.com/virtualclinic/api/internal/domain/prompt"
	"github.com/virtualclinic/api/internal/platform/llm"
	"github.com/virtualclinic/api/pkg/pagination"
)

// Sampling parameters for every patient reply.
const (
	Temperature float32 = 0.7
	MaxTokens           = 1024
)

// Patients is the slice of the patient service a conversation needs.
type Patients interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	LoadEHR(ctx context.Context, id uuid.UUID) (*patient.EHR, error)
}

type Service struct {
	repo     Repository
	patients Patients
	llm      llm.Completer
	logger   zerolog.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, which stamps conversation updates and ages
// patients in the system prompt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, patients Patients, completer llm.Completer, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		patients: patients,
		llm:      completer,
		logger:   logger,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create starts a conversation for an existing patient.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID, task prompt.TaskType, metadata *string) (*Created, error) {
	if !task.Valid() {
		return nil, fmt.Errorf("invalid task type %q", task)
	}
	p, err := s.patients.Get(ctx, patientID)
	if errors.Is(err, patient.ErrNotFound) {
		return nil, &NotFoundError{Kind: "Patient", ID: patientID}
	}
	if err != nil {
		return nil, err
	}

	if metadata != nil && *metadata == "" {
		metadata = nil
	}
	c := &Conversation{PatientID: patientID, TaskType: task, Metadata: metadata}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("conversation_id", c.ID.String()).
		Str("patient_id", patientID.String()).
		Str("task_type", string(task)).
		Msg("conversation created")

	return &Created{
		ID:          c.ID,
		PatientID:   c.PatientID,
		TaskType:    c.TaskType,
		PatientName: p.FullName(),
		CreatedAt:   c.CreatedAt,
	}, nil
}

// Get returns the conversation and its transcript. A patient that has
// since disappeared is reported as "Unknown".
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := unknownPatient
	p, err := s.patients.Get(ctx, c.PatientID)
	switch {
	case err == nil:
		name = p.FullName()
	case !errors.Is(err, patient.ErrNotFound):
		return nil, err
	}

	msgs, err := s.repo.Messages(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Detail{
		ID:          c.ID,
		PatientID:   c.PatientID,
		PatientName: name,
		TaskType:    c.TaskType,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		Metadata:    c.Metadata,
		Messages:    msgs,
	}, nil
}

func (s *Service) List(ctx context.Context, f ListFilter, p pagination.Params) ([]*ListItem, int, error) {
	return s.repo.List(ctx, f, p.Limit, p.Offset())
}

// SendMessage runs one interview turn: it persists the user's message, asks
// the model to answer in character and persists the reply. Nothing is
// retried; if the model fails the user message stays without an answer.
func (s *Service) SendMessage(ctx context.Context, conversationID uuid.UUID, content string) (*Reply, error) {
	c, err := s.repo.GetByID(ctx, conversationID)
	if errors.Is(err, ErrNotFound) {
		return nil, &NotFoundError{Kind: "Conversation", ID: conversationID}
	}
	if err != nil {
		return nil, err
	}

	ehr, err := s.patients.LoadEHR(ctx, c.PatientID)
	if errors.Is(err, patient.ErrNotFound) {
		return nil, &NotFoundError{Kind: "Patient", ID: c.PatientID}
	}
	if err != nil {
		return nil, err
	}

	system := prompt.Build(ehr, c.TaskType, s.now().UTC())

	prior, err := s.repo.Messages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddMessage(ctx, &Message{ConversationID: conversationID, Role: RoleUser, Content: content}); err != nil {
		return nil, err
	}

	history := make([]llm.Message, 0, len(prior)+1)
	for _, m := range prior {
		if m.Role == RoleSystem {
			continue
		}
		history = append(history, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	history = append(history, llm.Message{Role: string(RoleUser), Content: content})

	start := s.now()
	out, err := s.llm.Complete(ctx, llm.Request{
		System:      system,
		Messages:    history,
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate patient reply: %w", err)
	}
	elapsed := s.now().Sub(start)

	if err := s.repo.AddMessage(ctx, &Message{ConversationID: conversationID, Role: RoleAssistant, Content: out.Content}); err != nil {
		return nil, err
	}
	if err := s.repo.Touch(ctx, conversationID, s.now().UTC()); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("conversation_id", conversationID.String()).
		Str("task_type", string(c.TaskType)).
		Int("history", len(history)).
		Str("model", out.Model).
		Int("prompt_tokens", out.PromptTokens).
		Int("completion_tokens", out.CompletionTokens).
		Dur("llm_latency", elapsed).
		Msg("patient reply generated")

	return &Reply{ConversationID: conversationID, Role: RoleAssistant, Content: out.Content}, nil
}
