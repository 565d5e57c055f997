package types

import (
	"fmt"

	"github.com/gnoverse/canopy/internal/syntax"
)

// Severity grades a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityFatal
	SeverityOff
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityFatal:
		return "fatal"
	case SeverityOff:
		return "off"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler so severities appear as
// their names in JSON and YAML output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MarshalYAML implements yaml.Marshaler; yaml.v3 does not consult
// encoding.TextMarshaler.
func (s Severity) MarshalYAML() (any, error) {
	return s.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Severity) UnmarshalYAML(unmarshal func(any) error) error {
	var text string
	if err := unmarshal(&text); err != nil {
		return err
	}
	return s.UnmarshalText([]byte(text))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "info":
		*s = SeverityInfo
	case "warning":
		*s = SeverityWarning
	case "fatal":
		*s = SeverityFatal
	case "off":
		*s = SeverityOff
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Diagnostic records one finding produced while a unit runs the
// pipeline.
type Diagnostic struct {
	UnitID   string          `json:"unit_id"`
	Pass     string          `json:"pass"`
	Severity Severity        `json:"severity"`
	Message  string          `json:"message"`
	Pos      syntax.Position `json:"pos"`
}

func (d Diagnostic) String() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s:%d:%d: %s", d.Severity, d.Pass, d.Pos.Line, d.Pos.Col, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Pass, d.Message)
}

// Status is a unit's terminal pipeline state.
type Status string

const (
	StatusSuccess   Status = "Success"
	StatusAborted   Status = "Aborted"
	StatusParseFail Status = "ParseFailed"
)

// Unit is one input program: a self-contained source snippet with an
// identifier assigned by the collector.
type Unit struct {
	ID     string `json:"unit_id"`
	Source string `json:"source_text"`
}

// UnitResult is the output record for one unit. Aborted units carry
// their pre-pipeline source as TransformedSource unless a committed
// pass survives the abort.
type UnitResult struct {
	ID                string       `json:"unit_id"`
	OriginalSource    string       `json:"original_source"`
	TransformedSource string       `json:"transformed_source"`
	PassesApplied     []string     `json:"passes_applied"`
	Diagnostics       []Diagnostic `json:"diagnostics"`
	Status            Status       `json:"status"`
}

// ConfigPass is the per-pass configuration block.
type ConfigPass struct {
	Severity Severity `yaml:"severity"`
}

// Config is the typed form of the YAML configuration file.
type Config struct {
	Name    string                `yaml:"name"`
	Version string                `yaml:"version"`
	Passes  map[string]ConfigPass `yaml:"passes"`
	Order   []string              `yaml:"order"`
}
