package kb

import (
	"errors"
	"fmt"
	"sync"

	"github.com/signalsfoundry/sumo-czml/model"
)

var (
	// ErrTrackExists is returned when adding a track whose ID is taken.
	ErrTrackExists = errors.New("track already exists")
	// ErrTrackNotFound is returned when appending to an unknown track.
	ErrTrackNotFound = errors.New("track not found")
)

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventTrackAdded EventType = iota
	EventSampleAppended
)

// Event is emitted to subscribers when a track is created or grows.
type Event struct {
	Type    EventType
	TrackID string
	Samples int // position samples held by the track after the change
}

// TrackStore is an in-memory, thread-safe store of tracks keyed by object
// ID. Tracks are listed in the order they were first added.
type TrackStore struct {
	mu sync.RWMutex

	tracks map[string]*model.Track
	order  []string

	nextSubID uint64
	subIDs    []uint64 // registration order
	subs      map[uint64]func(Event)
}

// NewTrackStore constructs an empty store.
func NewTrackStore() *TrackStore {
	return &TrackStore{
		tracks: make(map[string]*model.Track),
		subs:   make(map[uint64]func(Event)),
	}
}

// AddTrack adds a new track. It returns ErrTrackExists if the ID is taken.
func (s *TrackStore) AddTrack(t *model.Track) error {
	s.mu.Lock()
	if _, exists := s.tracks[t.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("track %q: %w", t.ID, ErrTrackExists)
	}
	s.insertLocked(t)
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	notify(subs, Event{Type: EventTrackAdded, TrackID: t.ID})
	return nil
}

// EnsureTrack creates the track for id with the given type when absent and
// reports whether this call added it.
func (s *TrackStore) EnsureTrack(id, vehicleType string) (created bool) {
	s.mu.Lock()
	if _, ok := s.tracks[id]; ok {
		s.mu.Unlock()
		return false
	}
	s.insertLocked(&model.Track{ID: id, Type: vehicleType})
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	notify(subs, Event{Type: EventTrackAdded, TrackID: id})
	return true
}

// GetTrack returns a copy of the track with the given ID, or nil if not found.
func (s *TrackStore) GetTrack(id string) *model.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tracks[id]
	if !ok {
		return nil
	}
	return t.Clone()
}

// AppendPosition appends a position sample to the track.
func (s *TrackStore) AppendPosition(id string, timestep float64, p [3]float64) error {
	s.mu.Lock()
	t, ok := s.tracks[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("append position to %q: %w", id, ErrTrackNotFound)
	}
	t.AppendPosition(timestep, p)
	event := Event{Type: EventSampleAppended, TrackID: id, Samples: t.SampleCount()}
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	notify(subs, event)
	return nil
}

// AppendOrientation appends a quaternion sample to the track. It does not
// notify subscribers; the matching position sample already did.
func (s *TrackStore) AppendOrientation(id string, timestep float64, q [4]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracks[id]
	if !ok {
		return fmt.Errorf("append orientation to %q: %w", id, ErrTrackNotFound)
	}
	t.AppendOrientation(timestep, q)
	return nil
}

// ListTracks returns a snapshot of all tracks in first-seen order.
func (s *TrackStore) ListTracks() []*model.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]*model.Track, 0, len(s.order))
	for _, id := range s.order {
		res = append(res, s.tracks[id].Clone())
	}
	return res
}

// Len returns the number of tracks.
func (s *TrackStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Subscribe registers a callback for store events. It returns an unsubscribe
// function. Callbacks run outside the store lock on the mutating goroutine.
func (s *TrackStore) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = fn
	s.subIDs = append(s.subIDs, id)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; !ok {
			return
		}
		delete(s.subs, id)
		for i, sid := range s.subIDs {
			if sid == id {
				s.subIDs = append(s.subIDs[:i], s.subIDs[i+1:]...)
				break
			}
		}
	}
}

func (s *TrackStore) insertLocked(t *model.Track) {
	s.tracks[t.ID] = t
	s.order = append(s.order, t.ID)
}

func (s *TrackStore) snapshotSubsLocked() []func(Event) {
	if len(s.subIDs) == 0 {
		return nil
	}
	out := make([]func(Event), 0, len(s.subIDs))
	for _, id := range s.subIDs {
		out = append(out, s.subs[id])
	}
	return out
}

func notify(subs []func(Event), e Event) {
	for _, sub := range subs {
		sub(e)
	}
}
