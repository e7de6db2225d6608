// Package galley turns recipe markup into a structured model.
//
// The pipeline is lexer, parser and analyzer run back to back. A Parser
// value carries the configuration for all three stages; the zero value
// parses the base language with no unit table. Parsing never fails:
// every call returns a complete model together with a report of all
// errors and warnings found on the way.
//
//	p := galley.NewParser()
//	r, rep := p.Parse(source)
//	if rep.HasErrors() {
//		rep.Render(os.Stderr, "dinner.cook", source)
//	}
package galley

import (
	"github.com/FocuswithJustin/Galley/core/analysis"
	"github.com/FocuswithJustin/Galley/core/parser"
	"github.com/FocuswithJustin/Galley/core/recipe"
	"github.com/FocuswithJustin/Galley/core/report"
	"github.com/FocuswithJustin/Galley/core/units"
)

// Parser is a configured front door to the pipeline. Fields may be set
// directly; a zero Parser enables no extensions and checks no units.
type Parser struct {
	// Extensions selects the enabled syntax extensions.
	Extensions parser.Extensions

	// Converter resolves unit labels. When nil, unit and temperature
	// checks are skipped and labels pass through untouched.
	Converter *units.Converter

	// MetadataCheck vets each metadata entry after the special keys
	// have been parsed. Nil accepts everything.
	MetadataCheck analysis.MetadataCheck

	// RecipeChecker resolves references to other recipes. Nil accepts
	// everything.
	RecipeChecker analysis.RecipeChecker

	// TimePrecedence picks the wording of the redundancy warning issued
	// when a recipe declares a total time and also carries step timers.
	TimePrecedence analysis.TimePrecedence
}

// NewParser returns a parser with every extension enabled and the
// bundled unit table.
func NewParser() *Parser {
	return &Parser{
		Extensions: parser.AllExtensions,
		Converter:  units.Default(),
	}
}

// Parse runs the full pipeline on source. The returned recipe is always
// complete; anomalies land in the report.
func (p *Parser) Parse(source string) (*recipe.Recipe, *report.Report) {
	return ParseWithOptions(source, p.options())
}

// ParseMetadata scans only the metadata lines of source, skipping step
// content entirely. It is the cheap path for indexing a collection.
func (p *Parser) ParseMetadata(source string) (recipe.Metadata, *report.Report) {
	events, rep := parser.ParseMetadata(source)
	r, arep := analysis.Analyze(events, analysis.Options{
		MetadataCheck: p.MetadataCheck,
	})
	return r.Metadata, rep.Zip(arep)
}

// Scale produces a scaled copy of r using the parser's converter.
func (p *Parser) Scale(r *recipe.Recipe, target recipe.Target) (*recipe.ScaledRecipe, *report.Report) {
	return recipe.Scale(r, target, p.Converter)
}

func (p *Parser) options() analysis.Options {
	return analysis.Options{
		Extensions:     p.Extensions,
		Converter:      p.Converter,
		MetadataCheck:  p.MetadataCheck,
		RecipeChecker:  p.RecipeChecker,
		TimePrecedence: p.TimePrecedence,
	}
}

// ParseWithOptions runs the pipeline with explicit analyzer options,
// for callers that configure the stages themselves.
func ParseWithOptions(source string, opts analysis.Options) (*recipe.Recipe, *report.Report) {
	events, rep := parser.Parse(source, opts.Extensions)
	r, arep := analysis.Analyze(events, opts)
	return r, rep.Zip(arep)
}

// Parse parses source with the default configuration: all extensions on
// and the bundled unit table.
func Parse(source string) (*recipe.Recipe, *report.Report) {
	return NewParser().Parse(source)
}

// ParseMetadata scans the metadata of source with the default
// configuration.
func ParseMetadata(source string) (recipe.Metadata, *report.Report) {
	return NewParser().ParseMetadata(source)
}
