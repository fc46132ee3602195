package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/virtualclinic/api/pkg/client"
)

var defaultQuestions = []string{
	"Hello, I'm your doctor today. What brings you in?",
	"Can you describe your symptoms in more detail?",
	"How long have you been experiencing these symptoms?",
	"Are you currently taking any medications?",
	"Do you have any allergies I should know about?",
}

type interviewOptions struct {
	patientID string
	taskType  string
	questions []string
}

func separator(w io.Writer, char string) {
	fmt.Fprintln(w, strings.Repeat(char, 72))
}

// runInterview walks one patient through the scripted questions and prints
// the transcript.
func runInterview(ctx context.Context, w io.Writer, c *client.Client, o interviewOptions) error {
	health, err := c.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "API status:   %s\n", health.Status)
	fmt.Fprintf(w, "Database:     %s\n", health.Database)
	if health.DBLatencyMs != nil {
		fmt.Fprintf(w, "DB latency:   %d ms\n", *health.DBLatencyMs)
	}
	fmt.Fprintln(w)

	patientID := o.patientID
	if patientID == "" {
		page, err := c.Patients.List(ctx, 1, 5)
		if err != nil {
			return err
		}
		if len(page.Data) == 0 {
			return errors.New("no patients found; has the database been seeded?")
		}
		patientID = page.Data[0].ID
	}
	detail, err := c.Patients.Get(ctx, patientID)
	if err != nil {
		return err
	}

	p, s := detail.Patient, detail.Summary
	separator(w, "=")
	fmt.Fprintf(w, "Patient:      %s %s\n", p.First, p.Last)
	fmt.Fprintf(w, "Gender:       %s\n", p.Gender)
	fmt.Fprintf(w, "Born:         %s\n", p.BirthDate)
	separator(w, "-")
	fmt.Fprintf(w, "Conditions:   %d total, %d active\n", s.ConditionsCount, len(s.ActiveConditions))
	printFirst(w, s.ActiveConditions, 5)
	fmt.Fprintf(w, "Medications:  %d total, %d active\n", s.MedicationsCount, len(s.ActiveMedications))
	printFirst(w, s.ActiveMedications, 5)
	fmt.Fprintf(w, "Allergies:    %d\n", s.AllergiesCount)
	printFirst(w, s.Allergies, 5)
	separator(w, "=")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Starting '%s' conversation ...\n", o.taskType)
	convo, err := c.Conversations.Create(ctx, patientID, client.TaskType(o.taskType), nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Conversation: %s\n\n", convo.ID)

	separator(w, "=")
	fmt.Fprintln(w, "INTERVIEW")
	separator(w, "=")
	fmt.Fprintln(w)
	for _, q := range o.questions {
		fmt.Fprintf(w, "[you]     %s\n\n", q)
		reply, err := c.Conversations.SendMessage(ctx, convo.ID, q)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "[patient] %s\n\n", reply.Content)
		separator(w, "-")
		fmt.Fprintln(w)
	}

	history, err := c.Conversations.Get(ctx, convo.ID)
	if err != nil {
		return err
	}
	separator(w, "=")
	fmt.Fprintln(w, "CONVERSATION HISTORY")
	separator(w, "=")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "ID:        %s\n", history.ID)
	fmt.Fprintf(w, "Patient:   %s\n", history.PatientName)
	fmt.Fprintf(w, "Task:      %s\n", history.TaskType)
	fmt.Fprintf(w, "Messages:  %d\n\n", len(history.Messages))
	for _, m := range history.Messages {
		label := "patient"
		switch m.Role {
		case "system":
			continue
		case "user":
			label = "you"
		}
		fmt.Fprintf(w, "[%s] %s\n\n", label, m.Content)
	}
	separator(w, "=")
	fmt.Fprintln(w, "Done.")
	return nil
}

func printFirst(w io.Writer, items []string, n int) {
	for i, it := range items {
		if i == n {
			break
		}
		fmt.Fprintf(w, "  - %s\n", it)
	}
}

// explain turns SDK errors into the hints a workshop participant needs.
func explain(err error) error {
	var (
		authErr      *client.AuthenticationError
		forbiddenErr *client.ForbiddenError
	)
	switch {
	case errors.As(err, &authErr):
		return errors.New("invalid or expired token; check VIRTUAL_CLINIC_TOKEN")
	case errors.As(err, &forbiddenErr):
		return errors.New("insufficient permissions; patient endpoints require an admin token")
	}
	return err
}

func interviewCmd() *cobra.Command {
	v := viper.New()
	v.SetDefault("VIRTUAL_CLINIC_BASE_URL", "http://localhost:3001")
	v.SetDefault("TASK_TYPE", "diagnosis")
	v.BindEnv("VIRTUAL_CLINIC_BASE_URL")
	v.BindEnv("VIRTUAL_CLINIC_TOKEN")
	v.BindEnv("PATIENT_ID")
	v.BindEnv("TASK_TYPE")

	var questions []string

	cmd := &cobra.Command{
		Use:   "interview",
		Short: "Run a scripted multi-round interview against a running API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(questions) == 0 {
				questions = defaultQuestions
			}
			baseURL := v.GetString("VIRTUAL_CLINIC_BASE_URL")
			fmt.Fprintf(cmd.OutOrStdout(), "Connecting to %s ...\n\n", baseURL)

			c := client.New(baseURL, v.GetString("VIRTUAL_CLINIC_TOKEN"))
			err := runInterview(cmd.Context(), cmd.OutOrStdout(), c, interviewOptions{
				patientID: v.GetString("PATIENT_ID"),
				taskType:  v.GetString("TASK_TYPE"),
				questions: questions,
			})
			return explain(err)
		},
	}

	cmd.Flags().String("base-url", "", "API base URL (env VIRTUAL_CLINIC_BASE_URL)")
	cmd.Flags().String("token", "", "Bearer token; patient lookup needs an admin token (env VIRTUAL_CLINIC_TOKEN)")
	cmd.Flags().String("patient-id", "", "Patient UUID; defaults to the first listed patient (env PATIENT_ID)")
	cmd.Flags().String("task-type", "", "diagnosis, treatment or event (env TASK_TYPE)")
	cmd.Flags().StringArrayVarP(&questions, "question", "q", nil, "Question to ask; repeat to replace the default script")
	v.BindPFlag("VIRTUAL_CLINIC_BASE_URL", cmd.Flags().Lookup("base-url"))
	v.BindPFlag("VIRTUAL_CLINIC_TOKEN", cmd.Flags().Lookup("token"))
	v.BindPFlag("PATIENT_ID", cmd.Flags().Lookup("patient-id"))
	v.BindPFlag("TASK_TYPE", cmd.Flags().Lookup("task-type"))

	return cmd
}
