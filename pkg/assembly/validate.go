package assembly

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ValidationSeverity indicates whether a finding blocks loading or is
// merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks loading
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// Validation codes.
const (
	CodeUnresolvedTarget = "UNRESOLVED_TARGET"
	CodeAsymmetricPair   = "ASYMMETRIC_PAIR"
	CodeSelfTarget       = "SELF_TARGET"
	CodeBadGeometry      = "BAD_GEOMETRY"
	CodeNonFinite        = "NON_FINITE"
	CodeNoStaticPart     = "NO_STATIC_PART"
	CodeEmptyModel       = "EMPTY_MODEL"
)

// ValidationError describes a single schema finding.
type ValidationError struct {
	PartID   PartID // zero if model-level
	Key      string // connection point key, if any
	Code     string
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	switch {
	case e.PartID == "":
		return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
	case e.Key == "":
		return fmt.Sprintf("[%s] %s: part %s: %s", e.Severity, e.Code, e.PartID, e.Message)
	default:
		return fmt.Sprintf("[%s] %s: part %s point %s: %s", e.Severity, e.Code, e.PartID, e.Key, e.Message)
	}
}

// Validate runs every schema check and returns the findings in part
// declaration order. An empty slice means the model is clean. Validate is
// read-only.
func Validate(m *Model) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateNotEmpty(m)...)
	errs = append(errs, validateGeometry(m)...)
	errs = append(errs, validateFinite(m)...)
	errs = append(errs, validateTargets(m)...)
	errs = append(errs, validateAnchors(m)...)
	return errs
}

// Check validates m and returns an error wrapping ErrMalformedSchema when
// there are error findings, or any findings at all in strict mode. The
// findings are returned either way so callers can log warnings.
func Check(m *Model, strict bool) ([]ValidationError, error) {
	findings := Validate(m)
	var blocking []error
	for _, f := range findings {
		if f.Severity == SeverityError || strict {
			blocking = append(blocking, f)
		}
	}
	if len(blocking) == 0 {
		return findings, nil
	}
	return findings, fmt.Errorf("%w: %d finding(s): %w", ErrMalformedSchema, len(blocking), errors.Join(blocking...))
}

func validateNotEmpty(m *Model) []ValidationError {
	if m.Len() > 0 {
		return nil
	}
	return []ValidationError{{
		Code:     CodeEmptyModel,
		Message:  "model has no parts",
		Severity: SeverityError,
	}}
}

// validateGeometry checks that every dimension is finite and positive.
func validateGeometry(m *Model) []ValidationError {
	var errs []ValidationError
	bad := func(p *PartSchema, msg string, args ...any) {
		errs = append(errs, ValidationError{
			PartID:   p.ID,
			Code:     CodeBadGeometry,
			Message:  fmt.Sprintf(msg, args...),
			Severity: SeverityError,
		})
	}

	for _, p := range m.Parts() {
		switch g := p.Geometry.(type) {
		case Box:
			if !positive(g.Width, g.Height, g.Depth) {
				bad(p, "box dimensions %.4fx%.4fx%.4f must be positive", g.Width, g.Height, g.Depth)
			}
		case Cylinder:
			if !positive(g.Height) {
				bad(p, "cylinder height %.4f must be positive", g.Height)
			}
			if !finite(g.RadiusTop, g.RadiusBottom) || g.RadiusTop < 0 || g.RadiusBottom < 0 || (g.RadiusTop == 0 && g.RadiusBottom == 0) {
				bad(p, "cylinder radii %.4f/%.4f are invalid", g.RadiusTop, g.RadiusBottom)
			}
			if g.Segments < 3 {
				bad(p, "cylinder needs at least 3 segments, got %d", g.Segments)
			}
		case nil:
			bad(p, "part has no geometry")
		default:
			bad(p, "unsupported geometry %T", g)
		}
	}
	return errs
}

// validateFinite checks initial positions and connection offsets. A NaN
// offset never compares closer than the snap distance, so its point could
// never snap.
func validateFinite(m *Model) []ValidationError {
	var errs []ValidationError
	for _, p := range m.Parts() {
		if !finiteVec(p.InitialPosition) {
			errs = append(errs, ValidationError{
				PartID:   p.ID,
				Code:     CodeNonFinite,
				Message:  fmt.Sprintf("initial position %v is not finite", p.InitialPosition),
				Severity: SeverityError,
			})
		}
		for _, c := range p.Points {
			if !finiteVec(c.LocalOffset) {
				errs = append(errs, ValidationError{
					PartID:   p.ID,
					Key:      c.Key,
					Code:     CodeNonFinite,
					Message:  fmt.Sprintf("local offset %v is not finite", c.LocalOffset),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func positive(vals ...float64) bool {
	for _, v := range vals {
		if !finite(v) || v <= 0 {
			return false
		}
	}
	return true
}

func finiteVec(v v3.Vec) bool {
	return finite(v.X, v.Y, v.Z)
}

// pointRef locates a connection point inside a model.
type pointRef struct {
	part  *PartSchema
	point ConnectionPoint
}

// validateTargets checks that every connection point's target resolves to a
// point on another part, and that the pairing is declared from both sides.
// A point with an unresolved target can never snap.
func validateTargets(m *Model) []ValidationError {
	byKey := make(map[string][]pointRef)
	for _, p := range m.Parts() {
		for _, c := range p.Points {
			byKey[c.Key] = append(byKey[c.Key], pointRef{part: p, point: c})
		}
	}

	var errs []ValidationError
	for _, p := range m.Parts() {
		for _, c := range p.Points {
			var onOthers []pointRef
			selfOnly := false
			for _, ref := range byKey[c.TargetKey] {
				if ref.part.ID == p.ID {
					selfOnly = true
					continue
				}
				onOthers = append(onOthers, ref)
			}

			if len(onOthers) == 0 {
				code, msg := CodeUnresolvedTarget, fmt.Sprintf("target %q does not exist on any other part", c.TargetKey)
				if selfOnly {
					code, msg = CodeSelfTarget, fmt.Sprintf("target %q is on the same part", c.TargetKey)
				}
				errs = append(errs, ValidationError{
					PartID:   p.ID,
					Key:      c.Key,
					Code:     code,
					Message:  msg,
					Severity: SeverityWarning,
				})
				continue
			}

			reciprocal := false
			for _, ref := range onOthers {
				if ref.point.TargetKey == c.Key {
					reciprocal = true
					break
				}
			}
			if !reciprocal {
				errs = append(errs, ValidationError{
					PartID:   p.ID,
					Key:      c.Key,
					Code:     CodeAsymmetricPair,
					Message:  fmt.Sprintf("target %q does not point back at %q", c.TargetKey, c.Key),
					Severity: SeverityWarning,
				})
			}
		}
	}
	return errs
}

// validateAnchors warns when no part starts anchored: nothing can ever
// snap, so the assembly can never be completed.
func validateAnchors(m *Model) []ValidationError {
	if m.Len() == 0 {
		return nil
	}
	for _, p := range m.Parts() {
		if p.IsStatic {
			return nil
		}
	}
	return []ValidationError{{
		Code:     CodeNoStaticPart,
		Message:  "no static part; nothing can ever snap",
		Severity: SeverityWarning,
	}}
}
