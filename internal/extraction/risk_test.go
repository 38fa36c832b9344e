package extraction

import (
	"strings"
	"testing"
)

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected RiskLevel
	}{
		{"mixed case phrase", "Patient reported a Serious Adverse Event", RiskHigh},
		{"formatting update", "Submission formatting was updated", RiskNormal},
		{"no adverse findings", "no adverse findings reported", RiskNormal},
		{"hyphenated phrase", "a LIFE-THREATENING reaction", RiskHigh},
		{"substring of a word", "sudden deaths were recorded", RiskHigh},
		{"across a line break", "safety\nconcern", RiskNormal},
		{"empty", "", RiskNormal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyRisk(tc.text); got != tc.expected {
				t.Fatalf("ClassifyRisk(%q) = %s, want %s", tc.text, got, tc.expected)
			}
		})
	}
}

func TestClassifyRisk_EveryPhrase(t *testing.T) {
	for _, phrase := range HighRiskPhrases() {
		for _, variant := range []string{phrase, strings.ToUpper(phrase), strings.Title(phrase)} {
			text := "The reviewer noted " + variant + " in section 4."
			if got := ClassifyRisk(text); got != RiskHigh {
				t.Fatalf("ClassifyRisk(%q) = %s, want HIGH", text, got)
			}
		}
	}
}

func TestMatchRiskPhrase_ListOrder(t *testing.T) {
	phrase, ok := MatchRiskPhrase("A serious adverse event led to hospitalization")
	if !ok {
		t.Fatal("expected a match")
	}
	// "adverse event" precedes "serious adverse event" in the list.
	if phrase != "adverse event" {
		t.Fatalf("expected first listed phrase, got %q", phrase)
	}
}

func TestHighRiskPhrases_ReturnsCopy(t *testing.T) {
	phrases := HighRiskPhrases()
	phrases[0] = "mutated"
	if HighRiskPhrases()[0] == "mutated" {
		t.Fatal("HighRiskPhrases should return a copy")
	}
}
