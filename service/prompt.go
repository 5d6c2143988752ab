package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"parentguide-backend/i18n"
	"parentguide-backend/models"
)

// MaxQuestionLength caps the question in characters.
const MaxQuestionLength = 1000

const systemInstruction = "You are a knowledgeable, compassionate guide for parents of children with disabilities. " +
	"You explain special education processes (IEPs, 504 plans, evaluations, procedural safeguards) in plain language. " +
	"You are not a lawyer and say so when legal advice would be needed."

var emergencyKeywords = []string{
	// English
	"suicide", "suicidal", "kill myself", "kill himself", "kill herself", "self-harm", "self harm",
	"hurting himself", "hurting herself", "abuse", "abused", "in danger", "unsafe at school",
	"restrained", "restraint", "seclusion", "emergency", "crisis", "911",
	// Spanish
	"suicidio", "suicida", "autolesión", "abuso", "abusado", "abusada", "en peligro",
	"emergencia", "restricción física", "aislamiento",
}

type topic struct {
	id    string
	terms []string
}

// topics in the order related readings are offered.
var topics = []topic{
	{"iep", []string{"iep", "individualized education", "programa de educación individualizado"}},
	{"504", []string{"504", "accommodation", "acomodación", "adaptaciones"}},
	{"evaluation", []string{"evaluation", "evaluate", "assessment", "testing", "evaluación"}},
	{"due_process", []string{"due process", "disagree", "complaint", "mediation", "debido proceso", "queja", "mediación"}},
	{"transition", []string{"transition", "after high school", "graduation", "transición"}},
	{"behavior", []string{"behavior", "behaviour", "suspension", "expelled", "discipline", "conducta", "comportamiento"}},
	{"early_intervention", []string{"early intervention", "birth to 3", "toddler", "preschool", "intervención temprana", "preescolar"}},
}

const maxRelatedReadings = 3

// normalizeQuestion trims the question and cuts it to MaxQuestionLength
// characters on a rune boundary.
func normalizeQuestion(q string) string {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) <= MaxQuestionLength {
		return q
	}
	runes := []rune(q)
	return strings.TrimSpace(string(runes[:MaxQuestionLength]))
}

// DetectEmergency reports whether text contains an emergency keyword.
func DetectEmergency(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range emergencyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// RelatedReadings suggests up to three follow-up questions for the topics
// the question touches, falling back to a general one.
func RelatedReadings(question, lang string) []models.RelatedReading {
	lower := strings.ToLower(question)
	var out []models.RelatedReading
	for _, t := range topics {
		if len(out) == maxRelatedReadings {
			break
		}
		for _, term := range t.terms {
			if strings.Contains(lower, term) {
				out = append(out, models.RelatedReading{ID: t.id, Prompt: i18n.T(lang, "reading_"+t.id)})
				break
			}
		}
	}
	if len(out) == 0 {
		out = append(out, models.RelatedReading{ID: "general", Prompt: i18n.T(lang, "reading_general")})
	}
	return out
}

func buildPrompt(question, lang, location string, urgency models.Urgency, extra string) string {
	var b strings.Builder
	b.WriteString("A parent is asking for help with their child's education.\n\n")
	fmt.Fprintf(&b, "QUESTION:\n%s\n\n", question)
	if location != "" {
		fmt.Fprintf(&b, "LOCATION: %s\n", location)
	}
	if urgency != models.UrgencyNormal {
		fmt.Fprintf(&b, "URGENCY: %s\n", urgency)
	}
	if extra = strings.TrimSpace(extra); extra != "" {
		fmt.Fprintf(&b, "ADDITIONAL CONTEXT: %s\n", extra)
	}

	b.WriteString(`
TASK:
- Answer the question directly in the first paragraph
- Explain the relevant rights and process steps under IDEA or Section 504
- Give concrete next steps the parent can take this week
- Mention state-specific agencies only if you are confident they exist
`)
	if urgency == models.UrgencyEmergency {
		b.WriteString("- Start with what to do right now to keep the child safe, including calling 911 or 988 if anyone is in danger\n")
	}
	b.WriteString(`
OUTPUT REQUIREMENTS:
- Use markdown headers (##) and bullet lists
- Warm, plain language at an 8th grade reading level
- Under 600 words
- Do not include links; resources are attached separately
`)
	fmt.Fprintf(&b, "- %s\n", i18n.T(lang, "prompt_language"))
	return b.String()
}
