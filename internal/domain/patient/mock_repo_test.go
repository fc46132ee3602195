package patient

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
	ehr      map[uuid.UUID]*EHR
	err      error
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient), ehr: make(map[uuid.UUID]*EHR)}
}

func (m *mockRepo) add(e *EHR) {
	m.patients[e.Patient.ID] = e.Patient
	m.ehr[e.Patient.ID] = e
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Summary, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	var all []*Summary
	for _, p := range m.patients {
		all = append(all, &Summary{ID: p.ID, First: p.First, Last: p.Last, BirthDate: p.BirthDate, Gender: p.Gender})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Last < all[j].Last })
	total := len(all)
	if offset >= total {
		return []*Summary{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockRepo) get(id uuid.UUID) *EHR {
	if e, ok := m.ehr[id]; ok {
		return e
	}
	return &EHR{}
}

func (m *mockRepo) Conditions(_ context.Context, id uuid.UUID) ([]Condition, error) {
	return m.get(id).Conditions, nil
}

func (m *mockRepo) Medications(_ context.Context, id uuid.UUID) ([]Medication, error) {
	return m.get(id).Medications, nil
}

func (m *mockRepo) Encounters(_ context.Context, id uuid.UUID) ([]Encounter, error) {
	return m.get(id).Encounters, nil
}

func (m *mockRepo) Observations(_ context.Context, id uuid.UUID) ([]Observation, error) {
	return m.get(id).Observations, nil
}

func (m *mockRepo) Allergies(_ context.Context, id uuid.UUID) ([]Allergy, error) {
	return m.get(id).Allergies, nil
}

func (m *mockRepo) Procedures(_ context.Context, id uuid.UUID) ([]Procedure, error) {
	return m.get(id).Procedures, nil
}

func (m *mockRepo) Immunizations(_ context.Context, id uuid.UUID) ([]Immunization, error) {
	return m.get(id).Immunizations, nil
}

func (m *mockRepo) CarePlans(_ context.Context, id uuid.UUID) ([]CarePlan, error) {
	return m.get(id).CarePlans, nil
}
