package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("patient not found")

// Repository reads Synthea data. Every sub-record query returns rows for one
// patient in chronological order.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Summary, int, error)

	Conditions(ctx context.Context, patientID uuid.UUID) ([]Condition, error)
	Medications(ctx context.Context, patientID uuid.UUID) ([]Medication, error)
	Encounters(ctx context.Context, patientID uuid.UUID) ([]Encounter, error)
	Observations(ctx context.Context, patientID uuid.UUID) ([]Observation, error)
	Allergies(ctx context.Context, patientID uuid.UUID) ([]Allergy, error)
	Procedures(ctx context.Context, patientID uuid.UUID) ([]Procedure, error)
	Immunizations(ctx context.Context, patientID uuid.UUID) ([]Immunization, error)
	CarePlans(ctx context.Context, patientID uuid.UUID) ([]CarePlan, error)
}
