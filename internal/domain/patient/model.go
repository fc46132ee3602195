package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a Synthea patient row. Dates are ISO "YYYY-MM-DD" strings as
// stored in DATE columns.
type Patient struct {
	ID                 uuid.UUID `json:"id"`
	BirthDate          string    `json:"birthDate"`
	DeathDate          *string   `json:"deathDate"`
	SSN                string    `json:"ssn"`
	Drivers            *string   `json:"drivers"`
	Passport           *string   `json:"passport"`
	Prefix             *string   `json:"prefix"`
	First              string    `json:"first"`
	Last               string    `json:"last"`
	Suffix             *string   `json:"suffix"`
	Maiden             *string   `json:"maiden"`
	Marital            *string   `json:"marital"`
	Race               *string   `json:"race"`
	Ethnicity          *string   `json:"ethnicity"`
	Gender             string    `json:"gender"`
	Birthplace         *string   `json:"birthplace"`
	Address            *string   `json:"address"`
	City               *string   `json:"city"`
	State              *string   `json:"state"`
	County             *string   `json:"county"`
	FIPS               *string   `json:"fips"`
	Zip                *string   `json:"zip"`
	Lat                *float64  `json:"lat"`
	Lon                *float64  `json:"lon"`
	HealthcareExpenses *float64  `json:"healthcareExpenses"`
	HealthcareCoverage *float64  `json:"healthcareCoverage"`
	Income             *float64  `json:"income"`
}

func (p *Patient) FullName() string {
	return p.First + " " + p.Last
}

// Summary is the list view of a patient.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	First     string    `json:"first"`
	Last      string    `json:"last"`
	BirthDate string    `json:"birthDate"`
	DeathDate *string   `json:"deathDate"`
	Gender    string    `json:"gender"`
	Race      *string   `json:"race"`
	Ethnicity *string   `json:"ethnicity"`
	City      *string   `json:"city"`
	State     *string   `json:"state"`
}

type Encounter struct {
	ID                uuid.UUID  `json:"id"`
	Start             time.Time  `json:"start"`
	Stop              *time.Time `json:"stop"`
	PatientID         uuid.UUID  `json:"patientId"`
	OrganizationID    *uuid.UUID `json:"organizationId"`
	ProviderID        *uuid.UUID `json:"providerId"`
	PayerID           *uuid.UUID `json:"payerId"`
	EncounterClass    *string    `json:"encounterClass"`
	Code              *string    `json:"code"`
	Description       *string    `json:"description"`
	BaseCost          *float64   `json:"baseCost"`
	TotalClaimCost    *float64   `json:"totalClaimCost"`
	PayerCoverage     *float64   `json:"payerCoverage"`
	ReasonCode        *string    `json:"reasonCode"`
	ReasonDescription *string    `json:"reasonDescription"`
}

type Condition struct {
	Start       string     `json:"start"`
	Stop        *string    `json:"stop"`
	PatientID   uuid.UUID  `json:"patientId"`
	EncounterID *uuid.UUID `json:"encounterId"`
	System      *string    `json:"system"`
	Code        string     `json:"code"`
	Description string     `json:"description"`
}

func (c Condition) Active() bool { return c.Stop == nil }

type Medication struct {
	Start             time.Time  `json:"start"`
	Stop              *time.Time `json:"stop"`
	PatientID         uuid.UUID  `json:"patientId"`
	PayerID           *uuid.UUID `json:"payerId"`
	EncounterID       *uuid.UUID `json:"encounterId"`
	Code              string     `json:"code"`
	Description       string     `json:"description"`
	BaseCost          *float64   `json:"baseCost"`
	PayerCoverage     *float64   `json:"payerCoverage"`
	Dispenses         *float64   `json:"dispenses"`
	TotalCost         *float64   `json:"totalCost"`
	ReasonCode        *string    `json:"reasonCode"`
	ReasonDescription *string    `json:"reasonDescription"`
}

func (m Medication) Active() bool { return m.Stop == nil }

type Observation struct {
	Date        time.Time  `json:"date"`
	PatientID   uuid.UUID  `json:"patientId"`
	EncounterID *uuid.UUID `json:"encounterId"`
	Category    *string    `json:"category"`
	Code        string     `json:"code"`
	Description string     `json:"description"`
	Value       *string    `json:"value"`
	Units       *string    `json:"units"`
	Type        *string    `json:"type"`
}

type Allergy struct {
	Start        string     `json:"start"`
	Stop         *string    `json:"stop"`
	PatientID    uuid.UUID  `json:"patientId"`
	EncounterID  *uuid.UUID `json:"encounterId"`
	Code         string     `json:"code"`
	System       *string    `json:"system"`
	Description  string     `json:"description"`
	Type         *string    `json:"type"`
	Category     *string    `json:"category"`
	Reaction1    *string    `json:"reaction1"`
	Description1 *string    `json:"description1"`
	Severity1    *string    `json:"severity1"`
	Reaction2    *string    `json:"reaction2"`
	Description2 *string    `json:"description2"`
	Severity2    *string    `json:"severity2"`
}

type Procedure struct {
	Start             time.Time  `json:"start"`
	Stop              *time.Time `json:"stop"`
	PatientID         uuid.UUID  `json:"patientId"`
	EncounterID       *uuid.UUID `json:"encounterId"`
	Code              string     `json:"code"`
	Description       string     `json:"description"`
	BaseCost          *float64   `json:"baseCost"`
	ReasonCode        *string    `json:"reasonCode"`
	ReasonDescription *string    `json:"reasonDescription"`
}

type Immunization struct {
	Date        time.Time  `json:"date"`
	PatientID   uuid.UUID  `json:"patientId"`
	EncounterID *uuid.UUID `json:"encounterId"`
	Code        string     `json:"code"`
	Description string     `json:"description"`
	BaseCost    *float64   `json:"baseCost"`
}

type CarePlan struct {
	ID                uuid.UUID  `json:"id"`
	Start             string     `json:"start"`
	Stop              *string    `json:"stop"`
	PatientID         uuid.UUID  `json:"patientId"`
	EncounterID       *uuid.UUID `json:"encounterId"`
	Code              string     `json:"code"`
	Description       string     `json:"description"`
	ReasonCode        *string    `json:"reasonCode"`
	ReasonDescription *string    `json:"reasonDescription"`
}

func (c CarePlan) Active() bool { return c.Stop == nil }

// EHR is a patient with every sub-record, each list in chronological order.
type EHR struct {
	Patient       *Patient
	Conditions    []Condition
	Medications   []Medication
	Encounters    []Encounter
	Observations  []Observation
	Allergies     []Allergy
	Procedures    []Procedure
	Immunizations []Immunization
	CarePlans     []CarePlan
}

// DetailSummary gives counts and headline lists for the patient detail view.
type DetailSummary struct {
	ConditionsCount     int      `json:"conditionsCount"`
	ActiveConditions    []string `json:"activeConditions"`
	MedicationsCount    int      `json:"medicationsCount"`
	ActiveMedications   []string `json:"activeMedications"`
	AllergiesCount      int      `json:"allergiesCount"`
	Allergies           []string `json:"allergies"`
	EncountersCount     int      `json:"encountersCount"`
	ProceduresCount     int      `json:"proceduresCount"`
	ImmunizationsCount  int      `json:"immunizationsCount"`
	ObservationsCount   int      `json:"observationsCount"`
	CareplansCount      int      `json:"careplansCount"`
	ActiveCareplanCount int      `json:"activeCareplanCount"`
}

// Detail is the body of GET /api/patients/{id}.
type Detail struct {
	Patient            *Patient       `json:"patient"`
	Summary            DetailSummary  `json:"summary"`
	Conditions         []Condition    `json:"conditions"`
	Medications        []Medication   `json:"medications"`
	Allergies          []Allergy      `json:"allergies"`
	Procedures         []Procedure    `json:"procedures"`
	Careplans          []CarePlan     `json:"careplans"`
	RecentObservations []Observation  `json:"recentObservations"`
	Encounters         []Encounter    `json:"encounters"`
	Immunizations      []Immunization `json:"immunizations"`
}

// RecentObservationWindow is how many trailing observations the detail
// view returns.
const RecentObservationWindow = 30

// NewDetail summarizes an EHR. Nil lists are rendered as empty arrays.
func NewDetail(ehr *EHR) *Detail {
	d := &Detail{
		Patient:            ehr.Patient,
		Conditions:         nonNil(ehr.Conditions),
		Medications:        nonNil(ehr.Medications),
		Allergies:          nonNil(ehr.Allergies),
		Procedures:         nonNil(ehr.Procedures),
		Careplans:          nonNil(ehr.CarePlans),
		RecentObservations: nonNil(Tail(ehr.Observations, RecentObservationWindow)),
		Encounters:         nonNil(ehr.Encounters),
		Immunizations:      nonNil(ehr.Immunizations),
	}

	s := DetailSummary{
		ConditionsCount:    len(ehr.Conditions),
		ActiveConditions:   []string{},
		MedicationsCount:   len(ehr.Medications),
		ActiveMedications:  []string{},
		AllergiesCount:     len(ehr.Allergies),
		Allergies:          []string{},
		EncountersCount:    len(ehr.Encounters),
		ProceduresCount:    len(ehr.Procedures),
		ImmunizationsCount: len(ehr.Immunizations),
		ObservationsCount:  len(ehr.Observations),
		CareplansCount:     len(ehr.CarePlans),
	}
	for _, c := range ehr.Conditions {
		if c.Active() {
			s.ActiveConditions = append(s.ActiveConditions, c.Description)
		}
	}
	for _, m := range ehr.Medications {
		if m.Active() {
			s.ActiveMedications = append(s.ActiveMedications, m.Description)
		}
	}
	for _, a := range ehr.Allergies {
		s.Allergies = append(s.Allergies, a.Description)
	}
	for _, cp := range ehr.CarePlans {
		if cp.Active() {
			s.ActiveCareplanCount++
		}
	}
	d.Summary = s
	return d
}

// Tail returns the last n elements of s, or all of s when shorter.
func Tail[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
