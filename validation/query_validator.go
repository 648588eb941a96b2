// Package validation provides user input validation for the formulary API.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/giygas/formulary-api/interfaces"
)

// Pre-compiled regex patterns for performance optimization
// Compiled once at package initialization and reused for all validations
var (
	// Query validation: alphanumeric + punctuation that appears in
	// natural-language questions and drug names
	queryRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.\+'",\?\!\(\)/®™]+$`)

	// Drug name parameter validation: tighter than free-text queries
	drugNameRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.\+'®™]+$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	// strings.Contains is 5-10x faster than regex for these patterns
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:", "{$expr:",
	}
)

const (
	minQueryLength = 3
	maxQueryLength = 500
	maxQueryWords  = 50

	maxDrugNameLength = 100
)

// Compile-time check
var _ interfaces.QueryValidator = (*QueryValidatorImpl)(nil)

// QueryValidatorImpl implements the interfaces.QueryValidator interface
type QueryValidatorImpl struct{}

// NewQueryValidator creates a new query validator
func NewQueryValidator() interfaces.QueryValidator {
	return &QueryValidatorImpl{}
}

// ValidateQuery validates a natural-language query string with
// enhanced security
func (v *QueryValidatorImpl) ValidateQuery(queryText string) error {
	if strings.TrimSpace(queryText) == "" {
		return fmt.Errorf("query cannot be empty")
	}

	if len(queryText) < minQueryLength {
		return fmt.Errorf("query too short: minimum %d characters", minQueryLength)
	}

	if len(queryText) > maxQueryLength {
		return fmt.Errorf("query too long: maximum %d characters", maxQueryLength)
	}

	// Word count validation to prevent DoS attacks with many short words
	words := strings.Fields(queryText)
	if len(words) > maxQueryWords {
		return fmt.Errorf("query too complex: maximum %d words allowed", maxQueryWords)
	}

	// Check for potentially dangerous patterns using string matching (5-10x faster than regex)
	lowerQuery := strings.ToLower(queryText)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerQuery, pattern) {
			return fmt.Errorf("query contains potentially dangerous content")
		}
	}

	if !queryRegex.MatchString(queryText) {
		return fmt.Errorf("query contains invalid characters. Only letters, numbers, spaces, and common punctuation are allowed")
	}

	// Additional checks for repeated characters (potential DoS)
	if hasExcessiveRepetition(queryText) {
		return fmt.Errorf("query contains excessive character repetition")
	}

	return nil
}

// ValidateDrugNameParam validates a drug name path or query parameter
func (v *QueryValidatorImpl) ValidateDrugNameParam(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("drug name cannot be empty")
	}

	if len(trimmed) > maxDrugNameLength {
		return fmt.Errorf("drug name too long: maximum %d characters", maxDrugNameLength)
	}

	lowerName := strings.ToLower(trimmed)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerName, pattern) {
			return fmt.Errorf("drug name contains potentially dangerous content")
		}
	}

	if !drugNameRegex.MatchString(trimmed) {
		return fmt.Errorf("drug name contains invalid characters. Only letters, numbers, spaces, hyphens, apostrophes, periods, and plus sign are allowed")
	}

	if hasExcessiveRepetition(trimmed) {
		return fmt.Errorf("drug name contains excessive character repetition")
	}

	return nil
}

// hasExcessiveRepetition checks for potential DoS patterns with excessive character repetition
func hasExcessiveRepetition(input string) bool {
	// Check for the same character repeated more than 10 times consecutively
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}
