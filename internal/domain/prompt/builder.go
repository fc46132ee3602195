// Package prompt renders a patient's EHR into the system prompt that drives
// the simulated patient. Everything here is pure: the same EHR, task type
// and reference time always produce the same text.
package prompt

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/virtualclinic/api/internal/domain/patient"
)

// Display windows for long histories.
const (
	PastMedicationWindow = 10
	ObservationWindow    = 20
	ProcedureWindow      = 10
)

const dateLayout = "2006-01-02"

const yearLength = 365.25 * 24 * float64(time.Hour)

const preamble = `You are a simulated patient in a Virtual Clinic. You are role-playing as a real patient based on the electronic health record (EHR) data provided below. Your job is to realistically simulate a patient interview.`

const coreRules = `## Core Behavior Rules
1. Stay in character at all times. You are a patient, not a medical professional.
2. Use everyday language. Say "my chest hurts" not "I experience angina pectoris."
3. Be consistent with your EHR data. Don't invent symptoms or conditions not in your record.
4. Show realistic patient behavior: you may be uncertain, anxious, forgetful about exact dates, or confused about medical terminology.
5. Answer questions naturally and conversationally. Don't dump all information at once — reveal details as asked.
6. You can express emotions appropriate to your conditions (worry, frustration, relief, etc.).
7. If asked about something not in your record, say you don't know or can't remember.`

const closing = `Remember: You ARE this patient. Respond as they would in a real clinical interview. Be natural, be human, and let the interviewer do their job.`

// Build returns the system prompt for ehr under task. Ages of living
// patients are computed against asOf.
func Build(ehr *patient.EHR, task TaskType, asOf time.Time) string {
	p := ehr.Patient
	age := FormatAge(p.BirthDate, p.DeathDate, asOf)

	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\n## Your Character\n")
	fmt.Fprintf(&b, "You are %s %s, %s, %s. You live in %s, %s.",
		p.First, p.Last, age, p.Gender, orDefault(p.City, "a town"), orDefault(p.State, "USA"))
	b.WriteString("\n\n")
	b.WriteString(coreRules)
	b.WriteString("\n\n## Task-Specific Instructions\n")
	b.WriteString(Instructions(task))
	b.WriteString("\n\n## Your Health Record (INTERNAL REFERENCE — do NOT recite this verbatim)\n")
	b.WriteString(Context(ehr, asOf))
	b.WriteString("\n\n")
	b.WriteString(closing)
	return b.String()
}

// Age is the whole number of 365.25-day years between birth and the death
// date, or asOf for a living patient. Unparseable dates yield 0.
func Age(birthDate string, deathDate *string, asOf time.Time) int {
	birth, err := time.Parse(dateLayout, birthDate)
	if err != nil {
		return 0
	}
	ref := asOf
	if deathDate != nil && *deathDate != "" {
		if d, err := time.Parse(dateLayout, *deathDate); err == nil {
			ref = d
		}
	}
	return int(math.Floor(float64(ref.Sub(birth)) / yearLength))
}

func FormatAge(birthDate string, deathDate *string, asOf time.Time) string {
	return fmt.Sprintf("%d years old", Age(birthDate, deathDate, asOf))
}

// Context renders the EHR sections. Sections with nothing to show are
// omitted; the rest are separated by a blank line.
func Context(ehr *patient.EHR, asOf time.Time) string {
	sections := []string{demographics(ehr.Patient, asOf)}

	var active, resolved []string
	for _, c := range ehr.Conditions {
		if c.Active() {
			active = append(active, fmt.Sprintf("- %s (since %s)", c.Description, c.Start))
		} else {
			resolved = append(resolved, fmt.Sprintf("- %s (%s to %s)", c.Description, c.Start, *c.Stop))
		}
	}
	sections = appendSection(sections, "Active Conditions", active)
	sections = appendSection(sections, "Past/Resolved Conditions", resolved)

	var current, past []string
	for _, m := range ehr.Medications {
		line := "- " + m.Description + forReason(m.ReasonDescription)
		if m.Active() {
			current = append(current, line)
		} else {
			past = append(past, line)
		}
	}
	sections = appendSection(sections, "Current Medications", current)
	sections = appendSection(sections, "Past Medications (recent)", patient.Tail(past, PastMedicationWindow))

	var allergies []string
	for _, a := range ehr.Allergies {
		line := fmt.Sprintf("- %s (%s)", a.Description, orDefault(a.Category, "unknown category"))
		if a.Description1 != nil && *a.Description1 != "" {
			line += ", reaction: " + *a.Description1
		}
		allergies = append(allergies, line)
	}
	sections = appendSection(sections, "Allergies", allergies)

	var obs []string
	for _, o := range patient.Tail(ehr.Observations, ObservationWindow) {
		obs = append(obs, fmt.Sprintf("- %s: %s %s (%s)",
			o.Description, observationValue(o.Value), deref(o.Units), o.Date.UTC().Format(dateLayout)))
	}
	sections = appendSection(sections, "Recent Observations/Labs", obs)

	var procs []string
	for _, p := range patient.Tail(ehr.Procedures, ProcedureWindow) {
		line := fmt.Sprintf("- %s (%s)", p.Description, p.Start.UTC().Format(dateLayout))
		if p.ReasonDescription != nil && *p.ReasonDescription != "" {
			line += " for " + *p.ReasonDescription
		}
		procs = append(procs, line)
	}
	sections = appendSection(sections, "Recent Procedures", procs)

	var plans []string
	for _, cp := range ehr.CarePlans {
		if cp.Active() {
			plans = append(plans, "- "+cp.Description+forReason(cp.ReasonDescription))
		}
	}
	sections = appendSection(sections, "Active Care Plans", plans)

	var immunizations []string
	seen := make(map[string]bool)
	for _, im := range ehr.Immunizations {
		if seen[im.Description] {
			continue
		}
		seen[im.Description] = true
		immunizations = append(immunizations, "- "+im.Description)
	}
	sections = appendSection(sections, "Immunization History", immunizations)

	var classes []string
	counts := make(map[string]int)
	for _, e := range ehr.Encounters {
		cls := orDefault(e.EncounterClass, "unknown")
		if counts[cls] == 0 {
			classes = append(classes, cls)
		}
		counts[cls]++
	}
	var encounters []string
	for _, cls := range classes {
		encounters = append(encounters, fmt.Sprintf("- %s: %d visits", cls, counts[cls]))
	}
	sections = appendSection(sections, "Encounter Summary", encounters)

	return strings.Join(sections, "\n\n")
}

func demographics(p *patient.Patient, asOf time.Time) string {
	var location []string
	for _, s := range []*string{p.City, p.State} {
		if s != nil && *s != "" {
			location = append(location, *s)
		}
	}
	loc := strings.Join(location, ", ")
	if loc == "" {
		loc = "Unknown"
	}

	lines := []string{
		"- Name: " + p.First + " " + p.Last,
		"- Age: " + FormatAge(p.BirthDate, p.DeathDate, asOf),
		"- Date of Birth: " + p.BirthDate,
		"- Gender: " + p.Gender,
		"- Race: " + orDefault(p.Race, "Unknown"),
		"- Ethnicity: " + orDefault(p.Ethnicity, "Unknown"),
		"- Marital Status: " + orDefault(p.Marital, "Unknown"),
		"- Location: " + loc,
	}
	return "## Patient Demographics\n" + strings.Join(lines, "\n")
}

func appendSection(sections []string, title string, lines []string) []string {
	if len(lines) == 0 {
		return sections
	}
	return append(sections, "## "+title+"\n"+strings.Join(lines, "\n"))
}

func forReason(reason *string) string {
	if reason == nil || *reason == "" {
		return ""
	}
	return " (for " + *reason + ")"
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

// observationValue prints a missing value as "null" so the model can tell
// it apart from an empty reading.
func observationValue(v *string) string {
	if v == nil {
		return "null"
	}
	return *v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
