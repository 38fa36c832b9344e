package extraction

import "strings"

// RiskLevel is the coarse classification shown next to a response.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskNormal RiskLevel = "NORMAL"
)

// highRiskPhrases trigger a HIGH verdict when any appears in the text.
var highRiskPhrases = []string{
	"safety concern",
	"adverse event",
	"serious adverse event",
	"serious risk",
	"death",
	"life-threatening",
	"hospitalization",
	"toxicity",
}

// HighRiskPhrases returns a copy of the phrase list used by ClassifyRisk.
func HighRiskPhrases() []string {
	out := make([]string, len(highRiskPhrases))
	copy(out, highRiskPhrases)
	return out
}

// ClassifyRisk returns RiskHigh if text contains any high-risk phrase,
// ignoring case, and RiskNormal otherwise.
func ClassifyRisk(text string) RiskLevel {
	if _, ok := MatchRiskPhrase(text); ok {
		return RiskHigh
	}
	return RiskNormal
}

// MatchRiskPhrase returns the first phrase, in list order, found in text.
func MatchRiskPhrase(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, phrase := range highRiskPhrases {
		if strings.Contains(lower, phrase) {
			return phrase, true
		}
	}
	return "", false
}
