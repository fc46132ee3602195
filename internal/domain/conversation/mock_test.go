package conversation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/virtualclinic/api/internal/domain/patient"
	"github.com/virtualclinic/api/internal/platform/llm"
)

type mockRepo struct {
	mu      sync.Mutex
	convs   map[uuid.UUID]*Conversation
	msgs    map[uuid.UUID][]*Message
	names   map[uuid.UUID]string
	clock   time.Time
	addErr  error
	touched map[uuid.UUID]time.Time
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		convs:   make(map[uuid.UUID]*Conversation),
		msgs:    make(map[uuid.UUID][]*Message),
		names:   make(map[uuid.UUID]string),
		touched: make(map[uuid.UUID]time.Time),
		clock:   time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *mockRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *mockRepo) Create(_ context.Context, c *Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = m.tick()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.convs[c.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]*ListItem, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*ListItem
	for _, c := range m.convs {
		if f.PatientID != nil && c.PatientID != *f.PatientID {
			continue
		}
		if f.TaskType != "" && c.TaskType != f.TaskType {
			continue
		}
		name, ok := m.names[c.PatientID]
		if !ok {
			name = unknownPatient
		}
		all = append(all, &ListItem{
			ID: c.ID, PatientID: c.PatientID, PatientName: name, TaskType: c.TaskType,
			CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt, Metadata: c.Metadata,
		})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset >= total {
		return []*ListItem{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockRepo) Messages(_ context.Context, id uuid.UUID) ([]*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Message{}
	for _, msg := range m.msgs[id] {
		cp := *msg
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockRepo) AddMessage(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	msg.ID = uuid.New()
	msg.CreatedAt = m.tick()
	cp := *msg
	m.msgs[msg.ConversationID] = append(m.msgs[msg.ConversationID], &cp)
	return nil
}

func (m *mockRepo) Touch(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.convs[id]; ok {
		c.UpdatedAt = at
	}
	m.touched[id] = at
	return nil
}

type fakePatients struct {
	ehr map[uuid.UUID]*patient.EHR
	err error
}

func newFakePatients() *fakePatients {
	return &fakePatients{ehr: make(map[uuid.UUID]*patient.EHR)}
}

func (f *fakePatients) add(first, last string) *patient.EHR {
	id := uuid.New()
	e := &patient.EHR{
		Patient: &patient.Patient{ID: id, First: first, Last: last, BirthDate: "1960-02-01", Gender: "M"},
		Conditions: []patient.Condition{
			{Start: "2015-06-01", PatientID: id, Code: "38341003", Description: "Hypertension"},
		},
	}
	f.ehr[id] = e
	return e
}

func (f *fakePatients) Get(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.ehr[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	return e.Patient, nil
}

func (f *fakePatients) LoadEHR(_ context.Context, id uuid.UUID) (*patient.EHR, error) {
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.ehr[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	return e, nil
}

// recordingCompleter answers every request with reply and keeps the
// requests it saw.
type recordingCompleter struct {
	reply    string
	err      error
	requests []llm.Request
}

func (r *recordingCompleter) Complete(_ context.Context, req llm.Request) (*llm.Completion, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	return &llm.Completion{Content: r.reply, Model: "test-model", PromptTokens: 100, CompletionTokens: 20}, nil
}
