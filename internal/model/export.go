package model

import "time"

// AttemptsExport is the top-level JSON structure written by the export command.
type AttemptsExport struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Count       int                     `json:"count"`
	Finished    int                     `json:"finished"`
	Subjects    map[string]SubjectTotal `json:"subjects"`
	Attempts    []Attempt               `json:"attempts"`
}

// SubjectTotal aggregates per-subject results over all attempts.
type SubjectTotal struct {
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
}

// NewAttemptsExport builds an export envelope from stored attempts.
func NewAttemptsExport(attempts []Attempt, now time.Time) AttemptsExport {
	exp := AttemptsExport{
		GeneratedAt: now.UTC(),
		Count:       len(attempts),
		Subjects:    make(map[string]SubjectTotal),
		Attempts:    attempts,
	}
	if exp.Attempts == nil {
		exp.Attempts = []Attempt{}
	}
	for _, a := range attempts {
		if a.Status == StatusFinished {
			exp.Finished++
		}
		for subj, n := range a.PerSubjectCorrect {
			t := exp.Subjects[subj]
			t.Correct += n
			exp.Subjects[subj] = t
		}
		for _, w := range a.WrongAnswers {
			t := exp.Subjects[w.Subject]
			t.Wrong++
			exp.Subjects[w.Subject] = t
		}
	}
	return exp
}
