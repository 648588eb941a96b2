package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/giygas/formulary-api/entities"
	"github.com/giygas/formulary-api/interfaces"
	"github.com/giygas/formulary-api/logging"
)

// Compile-time check
var _ interfaces.AnswerGenerator = (*AnswerService)(nil)

const (
	answerTemperature = 0.2
	answerMaxTokens   = 800

	// summaryThreshold is the result count above which the answer
	// switches from an itemized list to a summary.
	summaryThreshold = 10
)

// AnswerService renders aggregated results into a natural-language
// answer. When the model is unavailable it falls back to a
// deterministic template so the endpoint always produces an answer.
type AnswerService struct {
	client *Client
}

// NewAnswerService wraps an OpenRouter client as an answer generator.
func NewAnswerService(client *Client) *AnswerService {
	return &AnswerService{client: client}
}

// GenerateAnswer asks the model to phrase an answer over the results.
// A model failure degrades to FormatAnswerFallback instead of
// propagating the error.
func (s *AnswerService) GenerateAnswer(ctx context.Context, queryText string, queryType entities.QueryType, results []entities.DrugMatch, notice string) (string, error) {
	if notice != "" {
		return notice, nil
	}

	prompt := fmt.Sprintf(answerPrompt, queryText, queryType, formatResults(results))
	answer, err := s.client.Complete(ctx, prompt, answerTemperature, answerMaxTokens)
	if err != nil {
		logging.Warn("answer generation failed, using template", "error", err)
		return FormatAnswerFallback(queryType, results), nil
	}
	return strings.TrimSpace(answer), nil
}

// formatResults renders results as prompt input. Large result sets are
// summarized by category and manufacturer so the prompt stays bounded.
func formatResults(results []entities.DrugMatch) string {
	if len(results) == 0 {
		return "(no results)"
	}

	var b strings.Builder
	if len(results) > summaryThreshold {
		categories := make(map[string]bool)
		manufacturers := make(map[string]bool)
		for _, m := range results {
			for _, c := range m.Drug.Categories {
				categories[c] = true
			}
			if m.Drug.Manufacturer != "" {
				manufacturers[m.Drug.Manufacturer] = true
			}
		}
		fmt.Fprintf(&b, "%d drugs matched across %d categories and %d manufacturers.\n",
			len(results), len(categories), len(manufacturers))
		b.WriteString("First matches:\n")
		for _, m := range results[:summaryThreshold/2] {
			writeResultLine(&b, m)
		}
		return b.String()
	}

	for _, m := range results {
		writeResultLine(&b, m)
	}
	return b.String()
}

func writeResultLine(b *strings.Builder, m entities.DrugMatch) {
	fmt.Fprintf(b, "- %s: status=%s", m.Drug.DrugName, m.Drug.DrugStatus)
	if len(m.Drug.Categories) > 0 {
		fmt.Fprintf(b, ", categories=%s", strings.Join(m.Drug.Categories, "/"))
	}
	if m.Drug.Manufacturer != "" {
		fmt.Fprintf(b, ", manufacturer=%s", m.Drug.Manufacturer)
	}
	if m.Drug.PAMNDRequired == entities.PAMNDYes {
		b.WriteString(", PA/MND required")
	}
	if m.Drug.HCPCS != "" {
		fmt.Fprintf(b, ", HCPCS=%s", m.Drug.HCPCS)
	}
	if m.Provenance != nil {
		fmt.Fprintf(b, " (matched %q at %d%%)", m.Provenance.OriginalQuery, m.Provenance.Confidence)
	}
	b.WriteString("\n")
}

// FormatAnswerFallback builds a deterministic answer when the model is
// unreachable. Shapes vary by query type so the degraded mode still
// reads naturally.
func FormatAnswerFallback(queryType entities.QueryType, results []entities.DrugMatch) string {
	if len(results) == 0 {
		return "I could not find any drugs matching your query in the provided lists."
	}

	var b strings.Builder
	switch queryType {
	case entities.QueryTypeDrugStatus:
		for _, m := range results {
			fmt.Fprintf(&b, "%s is %s", m.Drug.DrugName, statusPhrase(m.Drug.DrugStatus))
			if len(m.Drug.Categories) > 0 {
				fmt.Fprintf(&b, " in %s", strings.Join(m.Drug.Categories, ", "))
			}
			if m.Drug.PAMNDRequired == entities.PAMNDYes {
				b.WriteString(". Prior authorization / MND is required")
			}
			b.WriteString(".\n")
		}

	case entities.QueryTypeAlternatives:
		fmt.Fprintf(&b, "Found %d preferred alternative(s):\n", len(results))
		for _, m := range results {
			fmt.Fprintf(&b, "- %s", m.Drug.DrugName)
			if len(m.Drug.Categories) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(m.Drug.Categories, ", "))
			}
			b.WriteString("\n")
		}

	default:
		if len(results) > summaryThreshold {
			fmt.Fprintf(&b, "Found %d matching drugs. First %d:\n", len(results), summaryThreshold)
			results = results[:summaryThreshold]
		} else {
			fmt.Fprintf(&b, "Found %d matching drug(s):\n", len(results))
		}
		for _, m := range results {
			fmt.Fprintf(&b, "- %s [%s]", m.Drug.DrugName, m.Drug.DrugStatus)
			if m.Drug.PAMNDRequired == entities.PAMNDYes {
				b.WriteString(" (PA/MND required)")
			}
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func statusPhrase(s entities.DrugStatus) string {
	switch s {
	case entities.StatusPreferred:
		return "a preferred drug"
	case entities.StatusNonPreferred:
		return "a non-preferred drug"
	default:
		return "not listed in the formulary"
	}
}
