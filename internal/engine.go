package internal

import (
	"errors"
	"fmt"

	"github.com/gnoverse/canopy/internal/passes"
	"github.com/gnoverse/canopy/internal/syntax"
	tt "github.com/gnoverse/canopy/internal/types"
)

// Engine runs the normalization pipeline over one unit at a time.
type Engine struct {
	disabled map[string]bool
	passes   map[string]passes.Pass
	order    []string
}

// Define the passConstructor type
type passConstructor func() passes.Pass

// Define the passMap type
type passMap map[string]passConstructor

// Create a map to hold the mappings of pass names to their constructors
var allPassConstructors = passMap{
	"normalize-control-flow": passes.NewControlFlow,
	"rename-identifiers":     passes.NewRenamer,
	"decompose-expressions":  passes.NewDecomposer,
	"standardize-loops":      passes.NewLoopStandardizer,
	"extract-functions":      passes.NewExtractor,
	"strip-docstrings":       passes.NewDocstrings,
}

// defaultOrder is the core sequence: each later pass operates on
// structure the earlier ones already simplified.
var defaultOrder = []string{
	"normalize-control-flow",
	"rename-identifiers",
	"decompose-expressions",
	"standardize-loops",
	"extract-functions",
}

// DefaultOrder returns a copy of the core pass sequence.
func DefaultOrder() []string {
	return append([]string(nil), defaultOrder...)
}

// PassNames returns every registered pass name; Describe resolves one
// pass's description.
func PassNames() []string {
	names := make([]string, 0, len(allPassConstructors))
	for name := range allPassConstructors {
		names = append(names, name)
	}
	return names
}

// Describe returns a registered pass's description.
func Describe(name string) (string, bool) {
	cstr, ok := allPassConstructors[name]
	if !ok {
		return "", false
	}
	return cstr().Description(), true
}

// NewEngine creates an engine from the configuration's pass settings.
// A nil config yields the default core sequence.
func NewEngine(cfg *tt.Config) (*Engine, error) {
	engine := &Engine{}
	if err := engine.applyPasses(cfg); err != nil {
		return nil, err
	}
	return engine, nil
}

func (e *Engine) applyPasses(cfg *tt.Config) error {
	e.passes = make(map[string]passes.Pass)
	e.disabled = make(map[string]bool)
	e.registerDefaultPasses()

	if cfg == nil {
		e.order = DefaultOrder()
		return nil
	}

	// Iterate over the configured passes and apply severity
	for key, pc := range cfg.Passes {
		newPassCstr := allPassConstructors[key]
		if newPassCstr == nil {
			return fmt.Errorf("unknown pass %q in configuration", key)
		}
		if pc.Severity == tt.SeverityOff {
			e.DisablePass(key)
			continue
		}
		if _, ok := e.passes[key]; !ok {
			e.passes[key] = newPassCstr()
		}
	}

	if len(cfg.Order) == 0 {
		e.order = DefaultOrder()
		return nil
	}
	for _, name := range cfg.Order {
		if _, ok := allPassConstructors[name]; !ok {
			return fmt.Errorf("unknown pass %q in order", name)
		}
	}
	e.order = append([]string(nil), cfg.Order...)
	return nil
}

func (e *Engine) registerDefaultPasses() {
	for key, newPassCstr := range allPassConstructors {
		e.passes[key] = newPassCstr()
	}
}

// DisablePass removes one pass from the run without touching the order.
func (e *Engine) DisablePass(name string) {
	if e.disabled == nil {
		e.disabled = make(map[string]bool)
	}
	e.disabled[name] = true
}

// SetOrder overrides the pass sequence; unknown names are rejected.
func (e *Engine) SetOrder(names []string) error {
	for _, name := range names {
		if _, ok := allPassConstructors[name]; !ok {
			return fmt.Errorf("unknown pass %q", name)
		}
	}
	e.order = append([]string(nil), names...)
	return nil
}

// Order returns the pass sequence the engine will run.
func (e *Engine) Order() []string {
	return append([]string(nil), e.order...)
}

// RunUnit runs one unit through the pipeline and returns its output
// record. The record always covers the unit: parse failures and
// aborted runs carry the original source through.
func (e *Engine) RunUnit(unit tt.Unit) tt.UnitResult {
	result := tt.UnitResult{
		ID:             unit.ID,
		OriginalSource: unit.Source,
		Status:         tt.StatusSuccess,
	}

	mod, err := syntax.Parse(unit.Source)
	if err != nil {
		result.Status = tt.StatusParseFail
		result.TransformedSource = unit.Source
		result.Diagnostics = append(result.Diagnostics, parseDiagnostic(unit.ID, err))
		return result
	}
	ctx := passes.NewContext(unit.ID, mod)

	if err := syntax.Validate(mod); err != nil {
		result.Status = tt.StatusAborted
		result.TransformedSource = unit.Source
		result.Diagnostics = append(result.Diagnostics, tt.Diagnostic{
			UnitID:   unit.ID,
			Pass:     "validate",
			Severity: tt.SeverityFatal,
			Message:  err.Error(),
		})
		return result
	}

	tree := mod
	for _, name := range e.order {
		if e.disabled[name] {
			continue
		}
		pass, ok := e.passes[name]
		if !ok {
			continue
		}

		// clone so a failing pass cannot leak partial mutations
		work := syntax.Clone(tree)
		ctx.SetPass(name)
		if err := pass.Apply(ctx, work); err != nil {
			result.Status = tt.StatusAborted
			result.TransformedSource = unit.Source
			result.Diagnostics = append(ctx.Diagnostics(), rewriteDiagnostic(unit.ID, name, err))
			return result
		}

		tree = work
		result.PassesApplied = append(result.PassesApplied, name)
		if ctx.Fatal() {
			result.Status = tt.StatusAborted
			break
		}
	}

	result.TransformedSource = syntax.Render(tree)
	result.Diagnostics = ctx.Diagnostics()
	return result
}

func parseDiagnostic(unitID string, err error) tt.Diagnostic {
	diag := tt.Diagnostic{
		UnitID:   unitID,
		Pass:     "parse",
		Severity: tt.SeverityFatal,
		Message:  err.Error(),
	}
	if perr, ok := syntax.AsParseError(err); ok {
		diag.Pos = perr.Pos
		diag.Message = perr.Msg
	}
	return diag
}

func rewriteDiagnostic(unitID, pass string, err error) tt.Diagnostic {
	diag := tt.Diagnostic{
		UnitID:   unitID,
		Pass:     pass,
		Severity: tt.SeverityFatal,
		Message:  err.Error(),
	}
	var rerr *passes.RewriteError
	if errors.As(err, &rerr) {
		diag.Pos = rerr.Pos
	}
	return diag
}
