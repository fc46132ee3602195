package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/virtualclinic/api/pkg/pagination"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, p pagination.Params) ([]*Summary, int, error) {
	return s.repo.List(ctx, p.Limit, p.Offset())
}

// LoadEHR fetches the patient and all eight sub-record lists concurrently.
// It returns ErrNotFound when the patient does not exist.
func (s *Service) LoadEHR(ctx context.Context, id uuid.UUID) (*EHR, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ehr := &EHR{Patient: p}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { ehr.Conditions, err = s.repo.Conditions(gctx, id); return })
	g.Go(func() (err error) { ehr.Medications, err = s.repo.Medications(gctx, id); return })
	g.Go(func() (err error) { ehr.Encounters, err = s.repo.Encounters(gctx, id); return })
	g.Go(func() (err error) { ehr.Observations, err = s.repo.Observations(gctx, id); return })
	g.Go(func() (err error) { ehr.Allergies, err = s.repo.Allergies(gctx, id); return })
	g.Go(func() (err error) { ehr.Procedures, err = s.repo.Procedures(gctx, id); return })
	g.Go(func() (err error) { ehr.Immunizations, err = s.repo.Immunizations(gctx, id); return })
	g.Go(func() (err error) { ehr.CarePlans, err = s.repo.CarePlans(gctx, id); return })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load ehr for patient %s: %w", id, err)
	}
	return ehr, nil
}

func (s *Service) Detail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	ehr, err := s.LoadEHR(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewDetail(ehr), nil
}
