package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/giygas/formulary-api/entities"
	"github.com/giygas/formulary-api/interfaces"
)

// Compile-time check
var _ interfaces.IntentExtractor = (*IntentService)(nil)

const (
	intentTemperature = 0.0
	intentMaxTokens   = 500

	// fallbackConfidence is assigned to every accepted fallback intent.
	fallbackConfidence = 75

	// maxPromptNames caps how many catalog names the prompt lists.
	maxPromptNames = 200
)

// IntentService extracts structured intents from free-text queries via
// the language model, used only when rule-based parsing is not
// confident enough.
type IntentService struct {
	client *Client
}

// NewIntentService wraps an OpenRouter client as an intent extractor.
func NewIntentService(client *Client) *IntentService {
	return &IntentService{client: client}
}

// rawIntent mirrors the JSON shape the model is asked to produce.
// Fields are loosely typed so malformed values can be dropped instead
// of failing the whole extraction.
type rawIntent struct {
	QueryType string `json:"query_type"`
	DrugName  string `json:"drug_name"`
	Filters   struct {
		DrugStatus    string `json:"drug_status"`
		PAMNDRequired string `json:"pa_mnd_required"`
		Category      string `json:"category"`
		HCPCS         string `json:"hcpcs"`
		Manufacturer  string `json:"manufacturer"`
	} `json:"filters"`
}

// ExtractIntent asks the model to parse queryText and whitelists the
// response: an unknown query type rejects the whole intent, while
// invalid filter values are dropped field by field.
func (s *IntentService) ExtractIntent(ctx context.Context, queryText string, drugNames []string, categories []string) (*entities.FallbackIntent, error) {
	names := drugNames
	if len(names) > maxPromptNames {
		names = names[:maxPromptNames]
	}
	prompt := fmt.Sprintf(intentPrompt,
		strings.Join(names, ", "),
		strings.Join(categories, ", "),
		queryText)

	content, err := s.client.Complete(ctx, prompt, intentTemperature, intentMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("intent extraction: %w", err)
	}

	raw, err := parseIntentJSON(content)
	if err != nil {
		return nil, err
	}

	qt := entities.QueryType(strings.TrimSpace(raw.QueryType))
	if !entities.ValidQueryType(qt) {
		return nil, fmt.Errorf("model returned unknown query type %q", raw.QueryType)
	}

	intent := &entities.FallbackIntent{
		QueryType:  qt,
		DrugName:   strings.TrimSpace(raw.DrugName),
		Filters:    whitelistFilters(raw),
		Confidence: fallbackConfidence,
	}
	return intent, nil
}

// parseIntentJSON pulls the JSON object out of the model output,
// tolerating prose around it by slicing from the first '{' to the last
// '}'.
func parseIntentJSON(content string) (*rawIntent, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var raw rawIntent
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	return &raw, nil
}

func whitelistFilters(raw *rawIntent) entities.FilterSet {
	var filters entities.FilterSet

	status := entities.DrugStatus(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw.Filters.DrugStatus)), "-", "_"))
	if status == entities.StatusPreferred || status == entities.StatusNonPreferred {
		filters.DrugStatus = status
	}

	pa := entities.PAMND(strings.ToLower(strings.TrimSpace(raw.Filters.PAMNDRequired)))
	if pa == entities.PAMNDYes || pa == entities.PAMNDNo {
		filters.PAMNDRequired = pa
	}

	filters.Category = strings.TrimSpace(raw.Filters.Category)
	filters.HCPCS = strings.TrimSpace(raw.Filters.HCPCS)
	filters.Manufacturer = strings.TrimSpace(raw.Filters.Manufacturer)

	return filters
}
