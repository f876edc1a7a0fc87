package main

import (
	"context"
	"sync"

	"github.com/chazu/flatpack/pkg/assembly"
	"github.com/chazu/flatpack/pkg/engine"
	"github.com/chazu/flatpack/pkg/kernel"
	"github.com/chazu/flatpack/pkg/session"
	"github.com/chazu/flatpack/pkg/tessellate"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Events emitted to the frontend.
const (
	EventSnap    = "assembly:snap"
	EventVerify  = "assembly:verify"
	EventBanner  = "assembly:banner"
	EventChanged = "assembly:changed"
)

// Connection point marker colors.
const (
	colorSnapped   = "#22c55e"
	colorUnsnapped = "#ef4444"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via bindings
// and forwards pointer interaction to the current assembly session.
type App struct {
	ctx    context.Context
	engine *engine.Engine
	kernel kernel.Kernel
	log    zerolog.Logger
	opts   AppOptions

	mu      sync.Mutex
	model   *assembly.Model
	session *session.Session
	emit    func(name string, data any)
}

// AppOptions configures NewApp.
type AppOptions struct {
	Session session.Options
	// Strict rejects schemas with validation warnings in Evaluate.
	Strict bool
	// OnVerify receives every verification verdict.
	OnVerify func(success bool)
	Logger   zerolog.Logger
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or schema finding.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Part    string `json:"part,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// EvalResult is returned when the frontend submits a new schema.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// PartView is the render state of one part.
type PartView struct {
	ID         string      `json:"id"`
	Position   [3]float64  `json:"position"`
	Snapped    bool        `json:"snapped"`
	Static     bool        `json:"static"`
	PointColor string      `json:"pointColor"`
	Points     []PointView `json:"points"`
}

// PointView is a connection point marker in part-local coordinates.
type PointView struct {
	Key    string     `json:"key"`
	Offset [3]float64 `json:"offset"`
}

// StateView is the full render state sent to the frontend.
type StateView struct {
	SessionID string     `json:"sessionId"`
	Parts     []PartView `json:"parts"`
	Dragging  bool       `json:"dragging"`
	Banner    string     `json:"banner"`
}

// NewApp creates an App showing model, meshed with k.
func NewApp(model *assembly.Model, k kernel.Kernel, opts AppOptions) *App {
	a := &App{
		engine: engine.NewEngine(),
		kernel: k,
		log:    opts.Logger,
		opts:   opts,
		emit:   func(string, any) {},
	}
	a.model = model
	a.session = a.newSession(model)
	return a
}

// newSession starts a session whose callbacks forward to the frontend.
func (a *App) newSession(m *assembly.Model) *session.Session {
	so := a.opts.Session
	so.Logger = a.log
	so.OnVerify = a.opts.OnVerify
	so.OnSnap = func(ev session.SnapEvent) { a.send(EventSnap, ev) }
	so.OnVerified = func(res session.VerifyResult) { a.send(EventVerify, res) }
	so.OnBanner = func(b session.Banner) { a.send(EventBanner, b.String()) }
	return session.New(m, so)
}

// startup is called by Wails on app startup. The context is saved so
// events can be emitted through the Wails runtime.
func (a *App) startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ctx = ctx
	a.emit = func(name string, data any) {
		runtime.EventsEmit(ctx, name, data)
	}
}

// shutdown is called by Wails when the window closes.
func (a *App) shutdown(ctx context.Context) {
	a.current().Close()
}

func (a *App) send(name string, data any) {
	a.mu.Lock()
	emit := a.emit
	a.mu.Unlock()
	emit(name, data)
}

func (a *App) current() *session.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// Evaluate takes schema source, and on success replaces the current model
// and restarts the assembly. Validation warnings are reported but only
// block loading in strict mode.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the source into a model.
	m, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		a.log.Error().Err(err).Msg("evaluate failed")
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 2: Validate the model.
	findings, err := assembly.Check(m, a.opts.Strict)
	for _, f := range findings {
		d := EvalErrorData{Part: string(f.PartID), Code: f.Code, Message: f.Message}
		if f.Severity == assembly.SeverityError || a.opts.Strict {
			result.Errors = append(result.Errors, d)
		} else {
			result.Warnings = append(result.Warnings, d)
		}
	}
	if err != nil {
		a.log.Warn().Err(err).Msg("schema rejected")
		return result
	}

	// Step 3: Tessellate the parts.
	meshes, err := a.meshes(m)
	if err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}
	result.Meshes = meshes

	// Step 4: Swap in the new model.
	next := a.newSession(m)
	a.mu.Lock()
	prev := a.session
	a.model = m
	a.session = next
	a.mu.Unlock()
	prev.Close()

	a.log.Info().Int("parts", m.Len()).Str("session", next.ID()).Msg("schema loaded")
	a.send(EventChanged, a.State())
	return result
}

// Meshes returns one part-local mesh per part of the current model.
func (a *App) Meshes() ([]MeshData, error) {
	return a.meshes(a.current().Model())
}

// SceneMeshes returns world-space meshes with every part at its current
// position, for renderers that do not apply per-part transforms.
func (a *App) SceneMeshes() ([]MeshData, error) {
	sess := a.current()
	meshes, err := tessellate.Placed(sess.Model(), sess.Snapshot(), a.kernel)
	if err != nil {
		a.log.Error().Err(err).Msg("tessellate failed")
		return nil, err
	}
	return meshData(meshes), nil
}

func (a *App) meshes(m *assembly.Model) ([]MeshData, error) {
	meshes, err := tessellate.Parts(m, a.kernel)
	if err != nil {
		a.log.Error().Err(err).Msg("tessellate failed")
		return nil, err
	}
	return meshData(meshes), nil
}

// meshData converts kernel meshes to the frontend format, assigning palette
// colors in part order.
func meshData(meshes []*kernel.Mesh) []MeshData {
	out := make([]MeshData, 0, len(meshes))
	for i, mesh := range meshes {
		out = append(out, MeshData{
			Vertices: mesh.Vertices,
			Normals:  mesh.Normals,
			Indices:  mesh.Indices,
			PartName: mesh.PartName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return out
}

// State returns the current render state.
func (a *App) State() StateView {
	sess := a.current()
	s := sess.Snapshot()
	m := sess.Model()

	view := StateView{
		SessionID: sess.ID(),
		Parts:     make([]PartView, 0, m.Len()),
		Dragging:  sess.Dragging(),
		Banner:    sess.Banner().String(),
	}
	for _, p := range m.Parts() {
		ps := s[p.ID]
		pv := PartView{
			ID:         string(p.ID),
			Position:   vecArray(ps.Position),
			Snapped:    ps.IsSnapped,
			Static:     p.IsStatic,
			PointColor: colorUnsnapped,
			Points:     make([]PointView, 0, len(p.Points)),
		}
		if ps.IsSnapped {
			pv.PointColor = colorSnapped
		}
		for _, c := range p.Points {
			pv.Points = append(pv.Points, PointView{Key: c.Key, Offset: vecArray(c.LocalOffset)})
		}
		view.Parts = append(view.Parts, pv)
	}
	return view
}

// DragStart begins dragging a part. Snapped parts cannot be picked up.
func (a *App) DragStart(partID string) bool {
	return a.current().RequestDragStart(assembly.PartID(partID)) == nil
}

// Move places a dragged part at a world-space position. Rejected moves are
// ignored and reported as false.
func (a *App) Move(partID string, x, y, z float64) bool {
	return a.current().RequestMove(assembly.PartID(partID), v3.Vec{X: x, Y: y, Z: z}) == nil
}

// DragEnd releases a part and reports whether it snapped.
func (a *App) DragEnd(partID string) bool {
	_, ok := a.current().RequestDragEnd(assembly.PartID(partID))
	if ok {
		a.send(EventChanged, a.State())
	}
	return ok
}

// Reset restores every part to its initial placement.
func (a *App) Reset() StateView {
	a.current().RequestReset()
	view := a.State()
	a.send(EventChanged, view)
	return view
}

// Verify reports whether the assembly is complete.
func (a *App) Verify() bool {
	return a.current().RequestVerify()
}

func vecArray(v v3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
