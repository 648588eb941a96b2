// Package formularyparser loads the source formulary documents: the
// preferred drug list CSV and the PA/MND requirement list. Parsed rows
// are merged into storage-ready records.
package formularyparser

import (
	"github.com/giygas/formulary-api/entities"
)

// Parser loads and merges the formulary source files.
type Parser interface {
	LoadPreferredDrugs(path string) ([]entities.DrugRecord, error)
	LoadPAMNDList(path string) ([]string, error)
}

// Compile-time check
var _ Parser = (*FormularyParser)(nil)

// FormularyParser implements Parser over local CSV files.
type FormularyParser struct{}

// NewFormularyParser creates a new FormularyParser instance.
func NewFormularyParser() *FormularyParser {
	return &FormularyParser{}
}

func (p *FormularyParser) LoadPreferredDrugs(path string) ([]entities.DrugRecord, error) {
	return LoadPreferredDrugs(path)
}

func (p *FormularyParser) LoadPAMNDList(path string) ([]string, error) {
	return LoadPAMNDList(path)
}
