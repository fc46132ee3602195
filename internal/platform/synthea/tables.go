package synthea

// kind says how a CSV cell is converted before it is copied into Postgres.
type kind int

const (
	kindText kind = iota
	kindUUID
	kindDate
	kindTimestamp
	kindNumeric
)

type column struct {
	header   string
	name     string
	kind     kind
	required bool
}

type tableSpec struct {
	file    string
	table   string
	columns []column
}

func req(header, name string, k kind) column { return column{header: header, name: name, kind: k, required: true} }
func opt(header, name string, k kind) column { return column{header: header, name: name, kind: k} }

// tables is in insertion order: parents before children.
var tables = []tableSpec{
	{file: "patients.csv", table: "patients", columns: []column{
		req("Id", "id", kindUUID),
		req("BIRTHDATE", "birth_date", kindDate),
		opt("DEATHDATE", "death_date", kindDate),
		req("SSN", "ssn", kindText),
		opt("DRIVERS", "drivers", kindText),
		opt("PASSPORT", "passport", kindText),
		opt("PREFIX", "prefix", kindText),
		req("FIRST", "first", kindText),
		req("LAST", "last", kindText),
		opt("SUFFIX", "suffix", kindText),
		opt("MAIDEN", "maiden", kindText),
		opt("MARITAL", "marital", kindText),
		opt("RACE", "race", kindText),
		opt("ETHNICITY", "ethnicity", kindText),
		req("GENDER", "gender", kindText),
		opt("BIRTHPLACE", "birthplace", kindText),
		opt("ADDRESS", "address", kindText),
		opt("CITY", "city", kindText),
		opt("STATE", "state", kindText),
		opt("COUNTY", "county", kindText),
		opt("FIPS", "fips", kindText),
		opt("ZIP", "zip", kindText),
		opt("LAT", "lat", kindNumeric),
		opt("LON", "lon", kindNumeric),
		opt("HEALTHCARE_EXPENSES", "healthcare_expenses", kindNumeric),
		opt("HEALTHCARE_COVERAGE", "healthcare_coverage", kindNumeric),
		opt("INCOME", "income", kindNumeric),
	}},
	{file: "encounters.csv", table: "encounters", columns: []column{
		req("Id", "id", kindUUID),
		req("START", "start", kindTimestamp),
		opt("STOP", "stop", kindTimestamp),
		req("PATIENT", "patient_id", kindUUID),
		opt("ORGANIZATION", "organization_id", kindUUID),
		opt("PROVIDER", "provider_id", kindUUID),
		opt("PAYER", "payer_id", kindUUID),
		opt("ENCOUNTERCLASS", "encounter_class", kindText),
		opt("CODE", "code", kindText),
		opt("DESCRIPTION", "description", kindText),
		opt("BASE_ENCOUNTER_COST", "base_cost", kindNumeric),
		opt("TOTAL_CLAIM_COST", "total_claim_cost", kindNumeric),
		opt("PAYER_COVERAGE", "payer_coverage", kindNumeric),
		opt("REASONCODE", "reason_code", kindText),
		opt("REASONDESCRIPTION", "reason_description", kindText),
	}},
	{file: "conditions.csv", table: "conditions", columns: []column{
		req("START", "start", kindDate),
		opt("STOP", "stop", kindDate),
		req("PATIENT", "patient_id", kindUUID),
		opt("ENCOUNTER", "encounter_id", kindUUID),
		opt("SYSTEM", "system", kindText),
		req("CODE", "code", kindText),
		req("DESCRIPTION", "description", kindText),
	}},
	{file: "medications.csv", table: "medications", columns: []column{
		req("START", "start", kindTimestamp),
		opt("STOP", "stop", kindTimestamp),
		req("PATIENT", "patient_id", kindUUID),
		opt("PAYER", "payer_id", kindUUID),
		opt("ENCOUNTER", "encounter_id", kindUUID),
		req("CODE", "code", kindText),
		req("DESCRIPTION", "description", kindText),
		opt("BASE_COST", "base_cost", kindNumeric),
		opt("PAYER_COVERAGE", "payer_coverage", kindNumeric),
		opt("DISPENSES", "dispenses", kindNumeric),
		opt("TOTALCOST", "total_cost", kindNumeric),
		opt("REASONCODE", "reason_code", kindText),
		opt("REASONDESCRIPTION", "reason_description", kindText),
	}},
	{file: "observations.csv", table: "observations", columns: []column{
		req("DATE", "date", kindTimestamp),
		req("PATIENT", "patient_id", kindUUID),
		opt("ENCOUNTER", "encounter_id", kindUUID),
		opt("CATEGORY", "category", kindText),
		req("CODE", "code", kindText),
		req("DESCRIPTION", "description", kindText),
		opt("VALUE", "value", kindText),
		opt("UNITS", "units", kindText),
		opt("TYPE", "type", kindText),
	}},
	{file: "allergies.csv", table: "allergies", columns: []column{
		req("START", "start", kindDate),
		opt("STOP", "stop", kindDate),
		req("PATIENT", "patient_id", kindUUID),
		opt("ENCOUNTER", "encounter_id", kindUUID),
		req("CODE", "code", kindText),
		opt("SYSTEM", "system", kindText),
		req("DESCRIPTION", "description", kindText),
		opt("TYPE", "type", kindText),
		opt("CATEGORY", "category", kindText),
		opt("REACTION1", "reaction1", kindText),
		opt("DESCRIPTION1", "description1", kindText),
		opt("SEVERITY1", "severity1", kindText),
		opt("REACTION2", "reaction2", kindText),
		opt("DESCRIPTION2", "description2", kindText),
		opt("SEVERITY2", "severity2", kindText),
	}},
	{file: "procedures.csv", table: "procedures", columns: []column{
		req("START", "start", kindTimestamp),
		opt("STOP", "stop", kindTimestamp),
		req("PATIENT", "patient_id", kindUUID),
		opt("ENCOUNTER", "encounter_id", kindUUID),
		req("CODE", "code", kindText),
		req("DESCRIPTION", "description", kindText),
		opt("BASE_COST", "base_cost", kindNumeric),
		opt("REASONCODE", "reason_code", kindText),
		opt("REASONDESCRIPTION", "reason_description", kindText),
	}},
	{file: "immunizations.csv", table: "immunizations", columns: []column{
		req("DATE", "date", kindTimestamp),
		req("PATIENT", "patient_id", kindUUID),
		opt("ENCOUNTER", "encounter_id", kindUUID),
		req("CODE", "code", kindText),
		req("DESCRIPTION", "description", kindText),
		opt("BASE_COST", "base_cost", kindNumeric),
	}},
	{file: "careplans.csv", table: "careplans", columns: []column{
		req("Id", "id", kindUUID),
		req("START", "start", kindDate),
		opt("STOP", "stop", kindDate),
		req("PATIENT", "patient_id", kindUUID),
		opt("ENCOUNTER", "encounter_id", kindUUID),
		req("CODE", "code", kindText),
		req("DESCRIPTION", "description", kindText),
		opt("REASONCODE", "reason_code", kindText),
		opt("REASONDESCRIPTION", "reason_description", kindText),
	}},
}

// clearOrder empties every table that references patients, children first.
var clearOrder = []string{
	"messages", "conversations", "careplans", "immunizations", "procedures",
	"allergies", "observations", "medications", "conditions", "encounters", "patients",
}
