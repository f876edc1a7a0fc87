package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/flatpack/pkg/assembly"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms schema source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: some-name -> some_name
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a v3.Vec.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpGeometry wraps an assembly.Geometry so it can be returned from `box`
// or `cylinder` and consumed by `defpart`.
type sexpGeometry struct {
	geom assembly.Geometry
}

func (g *sexpGeometry) SexpString(ps *zygo.PrintState) string {
	switch d := g.geom.(type) {
	case assembly.Box:
		return fmt.Sprintf("(box %g %g %g)", d.Width, d.Height, d.Depth)
	case assembly.Cylinder:
		return fmt.Sprintf("(cylinder %g %g %g %d)", d.RadiusTop, d.RadiusBottom, d.Height, d.Segments)
	}
	return "(geometry)"
}
func (g *sexpGeometry) Type() *zygo.RegisteredType { return nil }

// sexpPoint wraps an assembly.ConnectionPoint.
type sexpPoint struct {
	point assembly.ConnectionPoint
}

func (p *sexpPoint) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(point %q -> %q)", p.point.Key, p.point.TargetKey)
}
func (p *sexpPoint) Type() *zygo.RegisteredType { return nil }

// sexpPartRef is returned by `defpart`.
type sexpPartRef struct {
	id assembly.PartID
}

func (r *sexpPartRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(partref %q)", r.id)
}
func (r *sexpPartRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value, treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a boolean from a Sexp.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number from a Sexp.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a v3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toGeometry extracts the geometry from a sexpGeometry.
func toGeometry(s zygo.Sexp) (assembly.Geometry, error) {
	if g, ok := s.(*sexpGeometry); ok {
		return g.geom, nil
	}
	return nil, fmt.Errorf("expected box or cylinder, got %T (%s)", s, s.SexpString(nil))
}

// floatArgs reads numbers from positional arguments first and falls back to
// the named keywords, in order.
func floatArgs(fn string, pa kwArgs, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, n := range names {
		var src zygo.Sexp
		if i < len(pa.positional) {
			src = pa.positional[i]
		} else if v, ok := pa.kw[n]; ok {
			src = v
		} else {
			return nil, fmt.Errorf("%s: missing %s", fn, n)
		}
		f, err := toFloat64(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", fn, n, err)
		}
		out[i] = f
	}
	return out, nil
}

// defaultSegments is used when a cylinder does not name its segment count.
const defaultSegments = 16

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the schema builtins into a zygomys environment.
// Parts are appended to b in evaluation order, which becomes the model's
// declaration order.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *assembly.ModelBuilder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: v3.Vec{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (box 2 0.2 2) or (box :width 2 :height 0.2 :depth 2)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		vals, err := floatArgs("box", parseArgs(args), "width", "height", "depth")
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpGeometry{geom: assembly.Box{Width: vals[0], Height: vals[1], Depth: vals[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder 0.1 0.1 2 16) or
	// (cylinder :radius-top 0.1 :radius-bottom 0.1 :height 2 :segments 16)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		vals, err := floatArgs("cylinder", pa, "radius-top", "radius-bottom", "height")
		if err != nil {
			return zygo.SexpNull, err
		}

		segments := defaultSegments
		var segSrc zygo.Sexp
		if len(pa.positional) > 3 {
			segSrc = pa.positional[3]
		} else if v, ok := pa.kw["segments"]; ok {
			segSrc = v
		}
		if segSrc != nil {
			segments, err = toInt(segSrc)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: segments: %w", err)
			}
		}

		return &sexpGeometry{geom: assembly.Cylinder{
			RadiusTop:    vals[0],
			RadiusBottom: vals[1],
			Height:       vals[2],
			Segments:     segments,
		}}, nil
	})

	// -----------------------------------------------------------------------
	// (point "leg_bl_top" (vec3 0 1 0) "seat_for_leg_bl") or
	// (point "leg_bl_top" :at (vec3 0 1 0) :target "seat_for_leg_bl")
	// -----------------------------------------------------------------------
	env.AddFunction("point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("point requires a key")
		}

		key, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: key: %w", err)
		}
		cp := assembly.ConnectionPoint{Key: key}

		atSrc, ok := pa.kw["at"]
		if len(pa.positional) > 1 {
			atSrc, ok = pa.positional[1], true
		}
		if !ok {
			return zygo.SexpNull, fmt.Errorf("point %q: missing offset", key)
		}
		if cp.LocalOffset, err = toVec3(atSrc); err != nil {
			return zygo.SexpNull, fmt.Errorf("point %q: offset: %w", key, err)
		}

		targetSrc, ok := pa.kw["target"]
		if len(pa.positional) > 2 {
			targetSrc, ok = pa.positional[2], true
		}
		if !ok {
			return zygo.SexpNull, fmt.Errorf("point %q: missing target", key)
		}
		if cp.TargetKey, err = toString(targetSrc); err != nil {
			return zygo.SexpNull, fmt.Errorf("point %q: target: %w", key, err)
		}

		return &sexpPoint{point: cp}, nil
	})

	// -----------------------------------------------------------------------
	// (defpart "seat" :static true :geometry (box 2 0.2 2) :at (vec3 0 1.9 0)
	//          (point ...) (point ...))
	// -----------------------------------------------------------------------
	env.AddFunction("defpart", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("defpart requires a name")
		}

		partName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
		}
		part := assembly.PartSchema{ID: assembly.PartID(partName)}

		if v, ok := pa.kw["static"]; ok {
			if part.IsStatic, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("defpart %q: static: %w", partName, err)
			}
		}

		v, ok := pa.kw["geometry"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("defpart %q: missing :geometry", partName)
		}
		if part.Geometry, err = toGeometry(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart %q: geometry: %w", partName, err)
		}

		if v, ok := pa.kw["at"]; ok {
			if part.InitialPosition, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("defpart %q: at: %w", partName, err)
			}
		}

		for i, item := range pa.positional[1:] {
			p, ok := item.(*sexpPoint)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("defpart %q: child %d: expected point, got %T (%s)",
					partName, i+1, item, item.SexpString(nil))
			}
			part.Points = append(part.Points, p.point)
		}

		if err := b.AddPart(part); err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: %w", err)
		}

		return &sexpPartRef{id: part.ID}, nil
	})
}
