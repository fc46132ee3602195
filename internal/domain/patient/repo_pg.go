package patient

import (
	"context"
	"errors"
	"fmt"

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

// DATE columns are selected as text so they round-trip as "YYYY-MM-DD" and
// NUMERIC columns as float8.
const patientCols = `id, birth_date::text, death_date::text, ssn, drivers, passport, prefix,
	first, last, suffix, maiden, marital, race, ethnicity, gender, birthplace,
	address, city, state, county, fips, zip, lat::float8, lon::float8,
	healthcare_expenses::float8, healthcare_coverage::float8, income::float8`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.BirthDate, &p.DeathDate, &p.SSN, &p.Drivers, &p.Passport, &p.Prefix,
		&p.First, &p.Last, &p.Suffix, &p.Maiden, &p.Marital, &p.Race, &p.Ethnicity, &p.Gender, &p.Birthplace,
		&p.Address, &p.City, &p.State, &p.County, &p.FIPS, &p.Zip, &p.Lat, &p.Lon,
		&p.HealthcareExpenses, &p.HealthcareCoverage, &p.Income)
	return &p, err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	q, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	p, err := scanPatient(q.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Summary, int, error) {
	q, err := r.conn(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, first, last, birth_date::text, death_date::text, gender, race, ethnicity, city, state
		FROM patients ORDER BY last, first, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	items := []*Summary{}
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.First, &s.Last, &s.BirthDate, &s.DeathDate,
			&s.Gender, &s.Race, &s.Ethnicity, &s.City, &s.State); err != nil {
			return nil, 0, fmt.Errorf("scan patient: %w", err)
		}
		items = append(items, &s)
	}
	return items, total, rows.Err()
}

// collect runs a per-patient query and scans each row with scan.
func collect[T any](ctx context.Context, r *repoPG, what, sql string, patientID uuid.UUID, scan func(pgx.Row, *T) error) ([]T, error) {
	q, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, sql, patientID)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var v T
		if err := scan(rows, &v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", what, err)
	}
	return out, nil
}

func (r *repoPG) Conditions(ctx context.Context, patientID uuid.UUID) ([]Condition, error) {
	return collect(ctx, r, "conditions", `
		SELECT start::text, stop::text, patient_id, encounter_id, system, code, description
		FROM conditions WHERE patient_id = $1 ORDER BY start, code`, patientID,
		func(row pgx.Row, c *Condition) error {
			return row.Scan(&c.Start, &c.Stop, &c.PatientID, &c.EncounterID, &c.System, &c.Code, &c.Description)
		})
}

func (r *repoPG) Medications(ctx context.Context, patientID uuid.UUID) ([]Medication, error) {
	return collect(ctx, r, "medications", `
		SELECT start, stop, patient_id, payer_id, encounter_id, code, description,
			base_cost::float8, payer_coverage::float8, dispenses::float8, total_cost::float8,
			reason_code, reason_description
		FROM medications WHERE patient_id = $1 ORDER BY start, code`, patientID,
		func(row pgx.Row, m *Medication) error {
			return row.Scan(&m.Start, &m.Stop, &m.PatientID, &m.PayerID, &m.EncounterID, &m.Code, &m.Description,
				&m.BaseCost, &m.PayerCoverage, &m.Dispenses, &m.TotalCost, &m.ReasonCode, &m.ReasonDescription)
		})
}

func (r *repoPG) Encounters(ctx context.Context, patientID uuid.UUID) ([]Encounter, error) {
	return collect(ctx, r, "encounters", `
		SELECT id, start, stop, patient_id, organization_id, provider_id, payer_id, encounter_class, code, description,
			base_cost::float8, total_claim_cost::float8, payer_coverage::float8,
			reason_code, reason_description
		FROM encounters WHERE patient_id = $1 ORDER BY start, id`, patientID,
		func(row pgx.Row, e *Encounter) error {
			return row.Scan(&e.ID, &e.Start, &e.Stop, &e.PatientID, &e.OrganizationID, &e.ProviderID, &e.PayerID,
				&e.EncounterClass, &e.Code, &e.Description, &e.BaseCost, &e.TotalClaimCost, &e.PayerCoverage,
				&e.ReasonCode, &e.ReasonDescription)
		})
}

func (r *repoPG) Observations(ctx context.Context, patientID uuid.UUID) ([]Observation, error) {
	return collect(ctx, r, "observations", `
		SELECT date, patient_id, encounter_id, category, code, description, value, units, type
		FROM observations WHERE patient_id = $1 ORDER BY date, code`, patientID,
		func(row pgx.Row, o *Observation) error {
			return row.Scan(&o.Date, &o.PatientID, &o.EncounterID, &o.Category, &o.Code, &o.Description,
				&o.Value, &o.Units, &o.Type)
		})
}

func (r *repoPG) Allergies(ctx context.Context, patientID uuid.UUID) ([]Allergy, error) {
	return collect(ctx, r, "allergies", `
		SELECT start::text, stop::text, patient_id, encounter_id, code, system, description, type, category,
			reaction1, description1, severity1, reaction2, description2, severity2
		FROM allergies WHERE patient_id = $1 ORDER BY start, code`, patientID,
		func(row pgx.Row, a *Allergy) error {
			return row.Scan(&a.Start, &a.Stop, &a.PatientID, &a.EncounterID, &a.Code, &a.System, &a.Description,
				&a.Type, &a.Category, &a.Reaction1, &a.Description1, &a.Severity1,
				&a.Reaction2, &a.Description2, &a.Severity2)
		})
}

func (r *repoPG) Procedures(ctx context.Context, patientID uuid.UUID) ([]Procedure, error) {
	return collect(ctx, r, "procedures", `
		SELECT start, stop, patient_id, encounter_id, code, description, base_cost::float8,
			reason_code, reason_description
		FROM procedures WHERE patient_id = $1 ORDER BY start, code`, patientID,
		func(row pgx.Row, p *Procedure) error {
			return row.Scan(&p.Start, &p.Stop, &p.PatientID, &p.EncounterID, &p.Code, &p.Description,
				&p.BaseCost, &p.ReasonCode, &p.ReasonDescription)
		})
}

func (r *repoPG) Immunizations(ctx context.Context, patientID uuid.UUID) ([]Immunization, error) {
	return collect(ctx, r, "immunizations", `
		SELECT date, patient_id, encounter_id, code, description, base_cost::float8
		FROM immunizations WHERE patient_id = $1 ORDER BY date, code`, patientID,
		func(row pgx.Row, im *Immunization) error {
			return row.Scan(&im.Date, &im.PatientID, &im.EncounterID, &im.Code, &im.Description, &im.BaseCost)
		})
}

func (r *repoPG) CarePlans(ctx context.Context, patientID uuid.UUID) ([]CarePlan, error) {
	return collect(ctx, r, "careplans", `
		SELECT id, start::text, stop::text, patient_id, encounter_id, code, description,
			reason_code, reason_description
		FROM careplans WHERE patient_id = $1 ORDER BY start, id`, patientID,
		func(row pgx.Row, cp *CarePlan) error {
			return row.Scan(&cp.ID, &cp.Start, &cp.Stop, &cp.PatientID, &cp.EncounterID, &cp.Code, &cp.Description,
				&cp.ReasonCode, &cp.ReasonDescription)
		})
}
