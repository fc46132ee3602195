package client

import "time"

type TaskType string

const (
	TaskDiagnosis TaskType = "diagnosis"
	TaskTreatment TaskType = "treatment"
	TaskEvent     TaskType = "event"
)

type HealthStatus struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Timestamp   string `json:"timestamp"`
	Database    string `json:"database"`
	DBLatencyMs *int64 `json:"dbLatencyMs,omitempty"`
	Error       string `json:"error,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Page is one page of a list endpoint.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type PatientSummary struct {
	ID        string  `json:"id"`
	First     string  `json:"first"`
	Last      string  `json:"last"`
	BirthDate string  `json:"birthDate"`
	DeathDate *string `json:"deathDate"`
	Gender    string  `json:"gender"`
	Race      *string `json:"race"`
	Ethnicity *string `json:"ethnicity"`
	City      *string `json:"city"`
	State     *string `json:"state"`
}

type Patient struct {
	PatientSummary
	Marital    *string `json:"marital"`
	Birthplace *string `json:"birthplace"`
	Address    *string `json:"address"`
	County     *string `json:"county"`
	Zip        *string `json:"zip"`
}

type EHRSummary struct {
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

// Record is the common shape of an EHR sub-record. Fields a record type
// does not carry stay empty.
type Record struct {
	ID                string  `json:"id,omitempty"`
	Start             string  `json:"start,omitempty"`
	Stop              *string `json:"stop"`
	Date              string  `json:"date,omitempty"`
	Code              string  `json:"code"`
	Description       string  `json:"description"`
	Category          *string `json:"category,omitempty"`
	Value             *string `json:"value,omitempty"`
	Units             *string `json:"units,omitempty"`
	EncounterClass    *string `json:"encounterClass,omitempty"`
	ReasonDescription *string `json:"reasonDescription,omitempty"`
}

type PatientDetail struct {
	Patient            Patient    `json:"patient"`
	Summary            EHRSummary `json:"summary"`
	Conditions         []Record   `json:"conditions"`
	Medications        []Record   `json:"medications"`
	Allergies          []Record   `json:"allergies"`
	Procedures         []Record   `json:"procedures"`
	Careplans          []Record   `json:"careplans"`
	RecentObservations []Record   `json:"recentObservations"`
	Encounters         []Record   `json:"encounters"`
	Immunizations      []Record   `json:"immunizations"`
}

type ConversationSummary struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patientId"`
	PatientName string    `json:"patientName"`
	TaskType    TaskType  `json:"taskType"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Metadata    *string   `json:"metadata"`
}

type CreatedConversation struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patientId"`
	TaskType    TaskType  `json:"taskType"`
	PatientName string    `json:"patientName"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type ConversationWithMessages struct {
	ConversationSummary
	Messages []Message `json:"messages"`
}

type AssistantMessage struct {
	ConversationID string `json:"conversationId"`
	Role           string `json:"role"`
	Content        string `json:"content"`
}

// ListConversationsOptions filters a conversation listing. Zero values are
// omitted.
type ListConversationsOptions struct {
	Page      int
	Limit     int
	PatientID string
	TaskType  TaskType
}
