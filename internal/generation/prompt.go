package generation

import "strings"

// Sections lists the labelled sections every response carries, in order.
var Sections = []string{
	"Query Summary",
	"Key Concern",
	"Root Cause",
	"Corrective Action",
	"Justification",
	"Conclusion",
}

const mockResponse = `REGULATORY RESPONSE (Mock Output)

Query Summary:
The health authority has identified a potential discrepancy in the submitted regulatory documentation.

Key Concern:
The inconsistency may impact compliance and requires immediate clarification.

Root Cause:
Preliminary assessment suggests a documentation or data transcription error during submission preparation.

Corrective Action:
The organization will conduct a detailed review of the source data, correct the identified discrepancy, and submit an updated regulatory filing.

Justification:
Maintaining accurate and consistent regulatory records is critical to ensuring product quality and compliance.

Conclusion:
The issue will be resolved promptly, and additional validation checks will be implemented to prevent recurrence.
`

// MockResponse returns the fixed template used in mock mode and as fallback.
func MockResponse() string {
	return mockResponse
}

// BuildPrompt wraps a deficiency text in the response-drafting instructions.
func BuildPrompt(deficiency string) string {
	var b strings.Builder
	b.WriteString("You are a senior regulatory affairs specialist.\n\n")
	b.WriteString("Analyze the following health authority deficiency and generate a structured regulatory response including:\n\n")
	for _, s := range Sections {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	b.WriteString("\nUse formal regulatory language suitable for submission to a health authority.\n\n")
	b.WriteString("Deficiency:\n")
	b.WriteString(deficiency)
	b.WriteString("\n")
	return b.String()
}
