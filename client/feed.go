package client

import (
	"sync"
	"time"

	"skirmish/world"
)

type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeError
	NoticeJoin
	NoticeLeave
	NoticeKill
)

// Notification is a fire-and-forget line for the HUD feed.
type Notification struct {
	Kind NoticeKind
	Text string
	At   time.Time
}

type EffectKind int

const (
	EffectMuzzleFlash EffectKind = iota
	EffectDamageFlash
	EffectHitMarker
	EffectHitConfirm
	EffectDeathScreen
	EffectRespawn
)

func (k EffectKind) String() string {
	switch k {
	case EffectMuzzleFlash:
		return "muzzle flash"
	case EffectDamageFlash:
		return "damage flash"
	case EffectHitMarker:
		return "hit marker"
	case EffectHitConfirm:
		return "hit confirm"
	case EffectDeathScreen:
		return "death screen"
	case EffectRespawn:
		return "respawn"
	}
	return "unknown"
}

// Effect is a cosmetic cue. It never feeds back into game state.
type Effect struct {
	Kind     EffectKind
	PlayerID string
	Position world.Vector3
	At       time.Time
}

// Sink consumes what the controller wants shown or played.
type Sink interface {
	Notify(Notification)
	Effect(Effect)
}

type discardSink struct{}

func (discardSink) Notify(Notification) {}
func (discardSink) Effect(Effect)       {}

const (
	DefaultFeedSize  = 6
	DefaultNoticeTTL = 5 * time.Second
	DefaultEffectTTL = 250 * time.Millisecond
)

// Feed is a Sink that keeps the most recent notifications and effects
// around for a while so a renderer can draw them.
type Feed struct {
	mu        sync.Mutex
	size      int
	noticeTTL time.Duration
	effectTTL time.Duration
	notices   []Notification
	effects   []Effect
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{
		size:      size,
		noticeTTL: DefaultNoticeTTL,
		effectTTL: DefaultEffectTTL,
	}
}

func (f *Feed) Notify(n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, n)
	if len(f.notices) > f.size {
		f.notices = f.notices[len(f.notices)-f.size:]
	}
}

func (f *Feed) Effect(e Effect) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.effects = append(f.effects, e)
}

// Expire forgets everything older than its time to live.
func (f *Feed) Expire(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = keep(f.notices, func(n Notification) bool { return now.Sub(n.At) < f.noticeTTL })
	f.effects = keep(f.effects, func(e Effect) bool { return now.Sub(e.At) < f.effectTTL })
}

// Notices returns the live notifications, oldest first.
func (f *Feed) Notices() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification(nil), f.notices...)
}

// Active reports whether an effect of kind is still showing.
func (f *Feed) Active(kind EffectKind) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.effects {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func keep[T any](items []T, ok func(T) bool) []T {
	out := items[:0]
	for _, item := range items {
		if ok(item) {
			out = append(out, item)
		}
	}
	return out
}
