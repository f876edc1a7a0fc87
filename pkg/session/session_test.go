package session

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/chazu/flatpack/pkg/assembly"
	"github.com/chazu/flatpack/pkg/snap"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/rs/zerolog"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// recorder captures session callbacks.
type recorder struct {
	mu       sync.Mutex
	verdicts []bool
	snaps    []SnapEvent
	results  []VerifyResult
	banners  []Banner
}

func (r *recorder) options(delay time.Duration) Options {
	return Options{
		BannerDelay: delay,
		Logger:      zerolog.Nop(),
		OnVerify: func(ok bool) {
			r.mu.Lock()
			r.verdicts = append(r.verdicts, ok)
			r.mu.Unlock()
		},
		OnSnap: func(ev SnapEvent) {
			r.mu.Lock()
			r.snaps = append(r.snaps, ev)
			r.mu.Unlock()
		},
		OnVerified: func(res VerifyResult) {
			r.mu.Lock()
			r.results = append(r.results, res)
			r.mu.Unlock()
		},
		OnBanner: func(b Banner) {
			r.mu.Lock()
			r.banners = append(r.banners, b)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) bannerLog() []Banner {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Banner(nil), r.banners...)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// drop drags a chair part near its mating point and releases it.
func drop(t *testing.T, s *Session, id assembly.PartID, at v3.Vec) {
	t.Helper()
	if err := s.RequestDragStart(id); err != nil {
		t.Fatalf("RequestDragStart(%s): %v", id, err)
	}
	if err := s.RequestMove(id, at); err != nil {
		t.Fatalf("RequestMove(%s): %v", id, err)
	}
	if _, ok := s.RequestDragEnd(id); !ok {
		t.Fatalf("%s did not snap", id)
	}
}

var chairDrops = []struct {
	id assembly.PartID
	at v3.Vec
}{
	{"leg_bl", v3.Vec{X: -0.8, Y: 0.8, Z: -0.8}},
	{"leg_br", v3.Vec{X: 0.8, Y: 0.8, Z: -0.8}},
	{"leg_fl", v3.Vec{X: -0.8, Y: 0.8, Z: 0.8}},
	{"leg_fr", v3.Vec{X: 0.8, Y: 0.8, Z: 0.8}},
	{"back_upright_left", v3.Vec{X: -0.8, Y: 3.25, Z: -0.9}},
	{"back_upright_right", v3.Vec{X: 0.8, Y: 3.25, Z: -0.9}},
	{"back_rail", v3.Vec{X: 0, Y: 4.3, Z: -0.85}},
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func TestNewSession(t *testing.T) {
	s := New(assembly.Chair(), Options{})
	defer s.Close()

	if s.ID() == "" {
		t.Error("session has no id")
	}
	if other := New(assembly.Chair(), Options{}); other.ID() == s.ID() {
		t.Error("two sessions share an id")
	}
	if s.SnapDistance() != 1.0 {
		t.Errorf("SnapDistance = %v, want default 1.0", s.SnapDistance())
	}
	if s.Banner() != BannerNone || s.Dragging() {
		t.Error("new session should be idle")
	}
	if snap := s.Snapshot(); !snap["seat"].IsSnapped || snap["leg_bl"].IsSnapped {
		t.Errorf("initial snapshot = %+v", snap)
	}
}

func TestNonFiniteSnapDistanceUsesDefault(t *testing.T) {
	for _, d := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		s := New(assembly.Chair(), Options{SnapDistance: d})
		if s.SnapDistance() != snap.DefaultDistance {
			t.Errorf("New(SnapDistance: %v).SnapDistance() = %v, want %v", d, s.SnapDistance(), snap.DefaultDistance)
		}
		s.Close()
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := New(assembly.Chair(), Options{})
	snap := s.Snapshot()
	snap["leg_bl"] = assembly.PartState{IsSnapped: true}
	if s.Snapshot()["leg_bl"].IsSnapped {
		t.Error("Snapshot shares storage with the session")
	}
}

// ---------------------------------------------------------------------------
// Drag interaction
// ---------------------------------------------------------------------------

func TestDragLifecycle(t *testing.T) {
	var rec recorder
	s := New(assembly.Chair(), rec.options(time.Hour))
	defer s.Close()

	if err := s.RequestDragStart("leg_bl"); err != nil {
		t.Fatalf("RequestDragStart: %v", err)
	}
	if !s.Dragging() {
		t.Error("Dragging = false during a drag")
	}
	if err := s.RequestMove("leg_bl", v3.Vec{X: -0.7, Y: 0.9, Z: -0.8}); err != nil {
		t.Fatalf("RequestMove: %v", err)
	}
	match, ok := s.RequestDragEnd("leg_bl")
	if !ok {
		t.Fatal("expected a snap")
	}
	if s.Dragging() {
		t.Error("Dragging = true after release")
	}
	if match.TargetPartID != "seat" || match.TargetKey != "seat_for_leg_bl" {
		t.Errorf("match = %+v", match)
	}

	if len(rec.snaps) != 1 {
		t.Fatalf("got %d snap events, want 1", len(rec.snaps))
	}
	ev := rec.snaps[0]
	if ev.SessionID != s.ID() || ev.DraggedPartID != "leg_bl" || ev.ConnectionKey != "leg_bl_top" {
		t.Errorf("snap event = %+v", ev)
	}
	if !s.Snapshot()["leg_bl"].IsSnapped {
		t.Error("leg_bl should be snapped")
	}
}

func TestDragEndWithoutMatch(t *testing.T) {
	var rec recorder
	s := New(assembly.Chair(), rec.options(time.Hour))

	if err := s.RequestMove("leg_bl", v3.Vec{X: 10}); err != nil {
		t.Fatalf("RequestMove: %v", err)
	}
	if _, ok := s.RequestDragEnd("leg_bl"); ok {
		t.Fatal("unexpected snap")
	}
	if len(rec.snaps) != 0 {
		t.Errorf("got %d snap events, want 0", len(rec.snaps))
	}
	if got := s.Snapshot()["leg_bl"]; got.IsSnapped || got.Position != (v3.Vec{X: 10}) {
		t.Errorf("leg_bl = %+v, want loose at (10,0,0)", got)
	}
}

func TestInvalidMovesAreIgnored(t *testing.T) {
	s := New(assembly.Chair(), Options{})
	before := s.Snapshot()

	tests := []struct {
		name string
		id   assembly.PartID
	}{
		{"static part", "seat"},
		{"unknown part", "armrest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.RequestDragStart(tt.id); !IsInvalidMove(err) {
				t.Errorf("RequestDragStart err = %v, want invalid move", err)
			}
			if err := s.RequestMove(tt.id, v3.Vec{X: 1}); !IsInvalidMove(err) {
				t.Errorf("RequestMove err = %v, want invalid move", err)
			}
			if _, ok := s.RequestDragEnd(tt.id); ok {
				t.Error("RequestDragEnd snapped an invalid part")
			}
		})
	}

	after := s.Snapshot()
	for id, ps := range before {
		if after[id] != ps {
			t.Errorf("%s changed from %+v to %+v", id, ps, after[id])
		}
	}
}

func TestSnappedPartCannotBeDragged(t *testing.T) {
	s := New(assembly.Chair(), Options{})
	drop(t, s, "leg_fr", v3.Vec{X: 0.8, Y: 0.8, Z: 0.8})

	if err := s.RequestDragStart("leg_fr"); !IsInvalidMove(err) {
		t.Errorf("RequestDragStart err = %v, want invalid move", err)
	}
	if err := s.RequestMove("leg_fr", v3.Vec{}); !IsInvalidMove(err) {
		t.Errorf("RequestMove err = %v, want invalid move", err)
	}
}

// ---------------------------------------------------------------------------
// Verification and banner
// ---------------------------------------------------------------------------

func TestVerifyCallbacks(t *testing.T) {
	var rec recorder
	s := New(assembly.Chair(), rec.options(time.Hour))
	defer s.Close()

	if s.RequestVerify() {
		t.Fatal("unassembled chair verified")
	}
	if s.Banner() != BannerFailure {
		t.Errorf("Banner = %v, want failure", s.Banner())
	}

	for _, d := range chairDrops {
		drop(t, s, d.id, d.at)
	}
	if !s.RequestVerify() {
		t.Fatal("assembled chair did not verify")
	}
	if s.Banner() != BannerSuccess {
		t.Errorf("Banner = %v, want success", s.Banner())
	}

	if len(rec.verdicts) != 2 || rec.verdicts[0] || !rec.verdicts[1] {
		t.Errorf("verdicts = %v, want [false true]", rec.verdicts)
	}
	if len(rec.results) != 2 {
		t.Fatalf("got %d verify results, want 2", len(rec.results))
	}
	if r := rec.results[0]; r.Success || r.Snapped != 1 || r.Total != 8 {
		t.Errorf("first result = %+v, want 1/8 failure", r)
	}
	if r := rec.results[1]; !r.Success || r.Snapped != 8 {
		t.Errorf("second result = %+v, want 8/8 success", r)
	}
	if len(rec.snaps) != len(chairDrops) {
		t.Errorf("got %d snap events, want %d", len(rec.snaps), len(chairDrops))
	}
}

func TestBannerAutoClears(t *testing.T) {
	var rec recorder
	s := New(assembly.Chair(), rec.options(20*time.Millisecond))
	defer s.Close()

	s.RequestVerify()
	waitFor(t, "banner to clear", func() bool { return s.Banner() == BannerNone })
	waitFor(t, "clear notification", func() bool { return len(rec.bannerLog()) == 2 })

	got := rec.bannerLog()
	if got[0] != BannerFailure || got[1] != BannerNone {
		t.Errorf("banners = %v, want [failure none]", got)
	}
}

func TestResetCancelsBanner(t *testing.T) {
	var rec recorder
	delay := 30 * time.Millisecond
	s := New(assembly.Chair(), rec.options(delay))
	defer s.Close()

	drop(t, s, "leg_bl", v3.Vec{X: -0.8, Y: 0.8, Z: -0.8})
	s.RequestVerify()
	s.RequestReset()

	if s.Banner() != BannerNone {
		t.Errorf("Banner = %v after reset, want none", s.Banner())
	}
	if s.Snapshot()["leg_bl"].IsSnapped {
		t.Error("reset left leg_bl snapped")
	}

	// The cancelled timer must not fire a second clear.
	time.Sleep(3 * delay)
	got := rec.bannerLog()
	if len(got) != 2 || got[0] != BannerFailure || got[1] != BannerNone {
		t.Errorf("banners = %v, want [failure none]", got)
	}
}

func TestResetWithoutBanner(t *testing.T) {
	var rec recorder
	s := New(assembly.Chair(), rec.options(time.Hour))
	s.RequestReset()
	if got := rec.bannerLog(); len(got) != 0 {
		t.Errorf("banners = %v, want none", got)
	}
}

func TestBannerString(t *testing.T) {
	tests := []struct {
		b    Banner
		want string
	}{
		{BannerNone, ""},
		{BannerSuccess, "success"},
		{BannerFailure, "failure"},
	}
	for _, tt := range tests {
		if got := tt.b.String(); got != tt.want {
			t.Errorf("Banner(%d).String() = %q, want %q", tt.b, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestConcurrentRequests(t *testing.T) {
	s := New(assembly.Chair(), Options{BannerDelay: time.Millisecond})
	defer s.Close()

	var wg sync.WaitGroup
	for _, d := range chairDrops {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_ = s.RequestMove(d.id, v3.Vec{X: float64(i)})
				s.RequestVerify()
			}
			_ = s.RequestMove(d.id, d.at)
		}()
	}
	wg.Wait()

	// Release in dependency order so every target is anchored.
	for _, d := range chairDrops {
		if _, ok := s.RequestDragEnd(d.id); !ok {
			t.Fatalf("%s did not snap", d.id)
		}
	}
	if !s.RequestVerify() {
		t.Error("assembled chair did not verify")
	}
}
