// Package session is the in-process boundary between the assembly core and
// the rendering/interaction adapter. A Session owns one AssemblyState and
// serializes every transition behind a single mutex, so a drag-end resolve
// always sees one consistent snapshot and applies its snap atomically.
package session

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/chazu/flatpack/pkg/assembly"
	"github.com/chazu/flatpack/pkg/snap"
	"github.com/chazu/flatpack/pkg/verify"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultBannerDelay is how long a verification banner stays visible.
const DefaultBannerDelay = 3 * time.Second

// SnapEvent is emitted whenever a released part snaps.
type SnapEvent struct {
	SessionID     string          `json:"sessionId"`
	DraggedPartID assembly.PartID `json:"draggedPartId"`
	TargetPartID  assembly.PartID `json:"targetPartId"`
	ConnectionKey string          `json:"connectionKey"`
	TargetKey     string          `json:"targetKey"`
	Position      [3]float64      `json:"position"`
}

// VerifyResult is emitted for every verification request.
type VerifyResult struct {
	SessionID string `json:"sessionId"`
	Success   bool   `json:"success"`
	Snapped   int    `json:"snapped"`
	Total     int    `json:"total"`
}

// Banner is the verification message currently on display.
type Banner int

const (
	BannerNone Banner = iota
	BannerSuccess
	BannerFailure
)

func (b Banner) String() string {
	switch b {
	case BannerSuccess:
		return "success"
	case BannerFailure:
		return "failure"
	default:
		return ""
	}
}

// Options configures a Session. Zero values select defaults.
type Options struct {
	SnapDistance float64       // default snap.DefaultDistance, also used for NaN or Inf
	BannerDelay  time.Duration // default DefaultBannerDelay
	OnVerify     func(success bool)
	OnSnap       func(SnapEvent)
	OnVerified   func(VerifyResult)
	OnBanner     func(Banner) // called when the banner changes, including auto-clear
	Logger       zerolog.Logger
}

// Session holds the mutable state of one assembly attempt.
type Session struct {
	id    string
	model *assembly.Model
	opts  Options
	log   zerolog.Logger

	mu       sync.Mutex
	state    assembly.State
	dragging bool
	banner   Banner
	clear    *time.Timer
	bannerID uint64 // guards against stale auto-clear timers
}

// New starts a session for model.
func New(model *assembly.Model, opts Options) *Session {
	if d := opts.SnapDistance; d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		opts.SnapDistance = snap.DefaultDistance
	}
	if opts.BannerDelay <= 0 {
		opts.BannerDelay = DefaultBannerDelay
	}
	id := uuid.NewString()
	return &Session{
		id:    id,
		model: model,
		opts:  opts,
		log:   opts.Logger.With().Str("session", id).Logger(),
		state: assembly.Initialize(model),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Model returns the schema the session was started with.
func (s *Session) Model() *assembly.Model {
	return s.model
}

// SnapDistance returns the configured tolerance.
func (s *Session) SnapDistance() float64 {
	return s.opts.SnapDistance
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() assembly.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dragging reports whether a drag is in progress.
func (s *Session) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragging
}

// Banner returns the verification banner currently on display.
func (s *Session) Banner() Banner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.banner
}

// RequestDragStart marks a drag as started. Drags on snapped or unknown
// parts are ignored and reported as ErrInvalidMove.
func (s *Session) RequestDragStart(id assembly.PartID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state[id]; !ok || s.state.Snapped(id) {
		s.log.Debug().Str("part", string(id)).Msg("drag start ignored")
		return assembly.ErrInvalidMove
	}
	s.dragging = true
	return nil
}

// RequestMove moves a part during a drag. Moves on snapped or unknown
// parts leave the state unchanged and return an error wrapping
// assembly.ErrInvalidMove, which adapters are expected to ignore.
func (s *Session) RequestMove(id assembly.PartID, pos v3.Vec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := assembly.Move(s.state, id, pos)
	if err != nil {
		s.log.Debug().Err(err).Str("part", string(id)).Msg("move rejected")
		return err
	}
	s.state = next
	return nil
}

// RequestDragEnd ends a drag and tries to snap the released part. It
// reports the match when one was applied.
func (s *Session) RequestDragEnd(id assembly.PartID) (snap.Match, bool) {
	s.mu.Lock()
	s.dragging = false
	next, match, ok := snap.ResolveAndApply(s.state, s.model, id, s.opts.SnapDistance)
	if ok {
		s.state = next
	}
	s.mu.Unlock()

	if !ok {
		return snap.Match{}, false
	}

	s.log.Info().
		Str("part", string(match.PartID)).
		Str("target", string(match.TargetPartID)).
		Str("point", match.ConnectionKey).
		Msg("part snapped")

	if s.opts.OnSnap != nil {
		s.opts.OnSnap(SnapEvent{
			SessionID:     s.id,
			DraggedPartID: match.PartID,
			TargetPartID:  match.TargetPartID,
			ConnectionKey: match.ConnectionKey,
			TargetKey:     match.TargetKey,
			Position:      [3]float64{match.Position.X, match.Position.Y, match.Position.Z},
		})
	}
	return match, true
}

// RequestReset restores the initial state and clears any banner.
func (s *Session) RequestReset() {
	s.mu.Lock()
	s.state = assembly.Reset(s.model)
	s.dragging = false
	changed := s.setBannerLocked(BannerNone)
	s.mu.Unlock()

	s.log.Info().Msg("assembly reset")
	if changed {
		s.notifyBanner(BannerNone)
	}
}

// RequestVerify evaluates the current state, reports the verdict through
// the callbacks and shows a banner that clears itself after BannerDelay.
func (s *Session) RequestVerify() bool {
	s.mu.Lock()
	progress := verify.Report(s.state)
	success := progress.Complete()
	banner := BannerFailure
	if success {
		banner = BannerSuccess
	}
	s.setBannerLocked(banner)
	s.mu.Unlock()

	s.log.Info().
		Bool("success", success).
		Int("snapped", progress.Snapped).
		Int("total", progress.Total).
		Int("loose", len(progress.Loose)).
		Msg("verification requested")

	if s.opts.OnVerify != nil {
		s.opts.OnVerify(success)
	}
	if s.opts.OnVerified != nil {
		s.opts.OnVerified(VerifyResult{
			SessionID: s.id,
			Success:   success,
			Snapped:   progress.Snapped,
			Total:     progress.Total,
		})
	}
	s.notifyBanner(banner)
	return success
}

// Close stops a pending banner timer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clear != nil {
		s.clear.Stop()
		s.clear = nil
	}
}

// setBannerLocked replaces the banner, cancelling any pending auto-clear,
// and arms a new auto-clear for visible banners. It reports whether the
// banner changed. s.mu must be held.
func (s *Session) setBannerLocked(b Banner) bool {
	if s.clear != nil {
		s.clear.Stop()
		s.clear = nil
	}
	s.bannerID++
	changed := s.banner != b
	s.banner = b
	if b == BannerNone {
		return changed
	}

	gen := s.bannerID
	s.clear = time.AfterFunc(s.opts.BannerDelay, func() {
		s.mu.Lock()
		if gen != s.bannerID {
			s.mu.Unlock()
			return
		}
		s.banner = BannerNone
		s.clear = nil
		s.mu.Unlock()
		s.notifyBanner(BannerNone)
	})
	return true
}

func (s *Session) notifyBanner(b Banner) {
	if s.opts.OnBanner != nil {
		s.opts.OnBanner(b)
	}
}

// IsInvalidMove reports whether err is a rejected move or snap.
func IsInvalidMove(err error) bool {
	return errors.Is(err, assembly.ErrInvalidMove)
}
