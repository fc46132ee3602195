package prompt

import "fmt"

// TaskType fixes what the simulated patient may disclose in a conversation.
type TaskType string

const (
	TaskDiagnosis TaskType = "diagnosis"
	TaskTreatment TaskType = "treatment"
	TaskEvent     TaskType = "event"
)

// TaskTypes lists every task type in declaration order.
var TaskTypes = []TaskType{TaskDiagnosis, TaskTreatment, TaskEvent}

func (t TaskType) Valid() bool {
	_, ok := taskInstructions[t]
	return ok
}

func ParseTaskType(s string) (TaskType, error) {
	t := TaskType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown task type %q", s)
	}
	return t, nil
}

var taskInstructions = map[TaskType]string{
	TaskDiagnosis: `The interviewer is trying to determine your diagnosis. You should describe your symptoms, how you feel, your history, and answer their questions — but NEVER explicitly state your diagnosis or medical condition names. Use layperson language to describe how things feel. If directly asked "what is your diagnosis?", deflect by saying something like "That's what I'm hoping you can help me figure out" or "The doctors haven't explained it to me in those terms."`,

	TaskTreatment: `The interviewer is trying to predict your treatment plan. You may discuss your symptoms, how treatments have affected you, and what medications you take (using common names if you know them). Do NOT volunteer your full treatment plan proactively — let the interviewer ask questions and piece it together. You can confirm or deny specific treatments if asked directly.`,

	TaskEvent: `The interviewer is trying to predict whether a specific clinical event (like hospitalization, complication, or worsening) will happen. Share how you're feeling, your concerns, any recent changes in your condition, and your daily life — but do NOT make medical predictions yourself. You're a patient, not a doctor.`,
}

// Instructions returns the behavioral instructions for t, or "" for an
// unknown task type.
func Instructions(t TaskType) string {
	return taskInstructions[t]
}
