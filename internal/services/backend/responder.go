// File: internal/services/backend/responder.go
package backend

import (
	"context"
	"strings"
	"time"
)

// cannedAnswers maps lowercase keywords to educational responses. Matched in
// declaration order; the fallback answer carries the safety disclaimer.
var cannedAnswers = []struct {
	keywords []string
	answer   string
}{
	{
		keywords: []string{"flu", "influenza"},
		answer: "Common symptoms of influenza include fever, chills, dry cough, sore throat, " +
			"muscle aches, headache, and fatigue. Unlike the common cold, flu symptoms tend to " +
			"come on suddenly. Most healthy people recover within one to two weeks, but " +
			"complications such as pneumonia can occur in high-risk groups. Annual vaccination " +
			"remains the most effective preventive measure.",
	},
	{
		keywords: []string{"diabetes", "blood sugar", "glucose"},
		answer: "Diabetes mellitus is a group of metabolic disorders characterized by chronic " +
			"hyperglycemia. Type 1 results from autoimmune destruction of pancreatic beta cells; " +
			"type 2 from insulin resistance combined with relative insulin deficiency. Classic " +
			"presenting symptoms are polyuria, polydipsia, and unexplained weight loss. Diagnosis " +
			"rests on fasting plasma glucose, HbA1c, or an oral glucose tolerance test.",
	},
	{
		keywords: []string{"hypertension", "blood pressure"},
		answer: "Hypertension is defined as a sustained blood pressure of 130/80 mmHg or higher " +
			"under current ACC/AHA guidance. It is usually asymptomatic, which is why it is called " +
			"the silent killer. First-line management combines lifestyle modification with " +
			"thiazide diuretics, ACE inhibitors, ARBs, or calcium channel blockers depending on " +
			"comorbidities.",
	},
	{
		keywords: []string{"cpr", "resuscitation", "cardiac arrest"},
		answer: "High-quality CPR for adults means chest compressions at a rate of 100 to 120 per " +
			"minute and a depth of at least 5 cm, allowing full chest recoil between compressions " +
			"and minimizing interruptions. The recommended compression-to-ventilation ratio for a " +
			"single rescuer is 30:2. Early defibrillation is the single strongest determinant of " +
			"survival in shockable rhythms.",
	},
	{
		keywords: []string{"antibiotic", "penicillin", "amoxicillin"},
		answer: "Antibiotics treat bacterial infections and have no effect on viral illnesses. " +
			"Beta-lactams such as penicillins inhibit cell wall synthesis; macrolides and " +
			"tetracyclines inhibit protein synthesis. Stewardship matters: unnecessary use drives " +
			"resistance, so spectrum, duration, and indication should always be reviewed.",
	},
}

const fallbackAnswer = "That's an interesting medical education question. While I can offer general " +
	"educational background, I'd encourage checking an authoritative clinical reference such as a " +
	"current textbook or guideline for details. Remember: " + Disclaimer

// CannedResponder answers from a small built-in medical-education corpus after
// a simulated network delay. It honors cancellation promptly.
type CannedResponder struct {
	delay  time.Duration
	logger Logger
}

func NewCannedResponder(delay time.Duration, logger Logger) *CannedResponder {
	return &CannedResponder{delay: delay, logger: logger}
}

func (r *CannedResponder) Respond(ctx context.Context, question string) (string, error) {
	if r.delay > 0 {
		timer := time.NewTimer(r.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", NewAbortError("respond", ctx.Err())
		}
	} else if err := ctx.Err(); err != nil {
		return "", NewAbortError("respond", err)
	}

	lowered := strings.ToLower(question)
	for _, entry := range cannedAnswers {
		for _, kw := range entry.keywords {
			if strings.Contains(lowered, kw) {
				return entry.answer, nil
			}
		}
	}

	r.logger.Debug("no canned answer matched, using fallback", "question_length", len(question))
	return fallbackAnswer, nil
}
