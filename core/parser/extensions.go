package parser

// Extensions toggles the markup features beyond the base language. The
// parser and analyzer both consult the set; a disabled extension's syntax
// reads as plain text.
type Extensions uint16

const (
	// Multiline lets steps span lines until a blank line or a metadata or
	// section marker; single newlines inside a step become soft breaks.
	Multiline Extensions = 1 << iota
	// ComponentModifiers enables the @&-?+ flags before component names.
	ComponentModifiers
	// ComponentAlias enables `@name|alias{}`.
	ComponentAlias
	// ComponentNote enables `@name{}(note)`.
	ComponentNote
	// Sections enables `= name =` section markers.
	Sections
	// TextSteps enables `>` prose steps.
	TextSteps
	// RangeValues enables `{1-2}` quantity ranges.
	RangeValues
	// Temperature enables inline temperature detection in step text.
	Temperature
	// IntermediateRefs enables `&(...)` step and section targets.
	IntermediateRefs
	// TimerRequiresTime upgrades a missing timer duration to an error.
	TimerRequiresTime

	// NoExtensions is the base language only.
	NoExtensions Extensions = 0
)

// AllExtensions enables every feature; it is the default.
const AllExtensions = Multiline | ComponentModifiers | ComponentAlias |
	ComponentNote | Sections | TextSteps | RangeValues | Temperature |
	IntermediateRefs | TimerRequiresTime

// Has reports whether every flag in ext is enabled.
func (e Extensions) Has(ext Extensions) bool {
	return e&ext == ext
}
