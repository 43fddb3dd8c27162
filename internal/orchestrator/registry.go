package orchestrator

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry defines the concurrency-safe contract for accessing and mutating
// room and recording state. It is the single source of truth for the
// orchestration layer; all reads return snapshots.
type Registry interface {
	// CreateRoom mints a fresh room with an empty member list and returns it.
	CreateRoom(name string) Room

	// GetRoom returns a snapshot of the room, ok false if unknown.
	GetRoom(id RoomID) (Room, bool)

	// AppendMember appends m to the room's member list and returns the
	// updated room. ErrRoomNotFound if the room is unknown.
	AppendMember(id RoomID, m Member) (Room, error)

	// ListRooms returns a snapshot of all rooms, oldest first.
	ListRooms() []Room

	// CreateRecording mints a recording session with status StatusRecording
	// and, in the same step, sets the owning room's recording flag and
	// active-recording reference. ErrRoomNotFound if the room is unknown;
	// ErrAlreadyRecording if the room already has an active session.
	CreateRecording(roomID RoomID, resourceID, sid string) (Recording, error)

	// GetRecording returns a snapshot of the recording, ok false if unknown.
	GetRecording(id RecordingID) (Recording, bool)

	// CompleteRecording transitions the recording to StatusStopped, records
	// the stop timestamp and file list, and clears the owning room's
	// recording flag in the same step. The transition is one-way:
	// ErrNotRecording if the session is already stopped.
	CompleteRecording(id RecordingID, files []RecordedFile) (Recording, error)

	// ListRecordings returns a snapshot of all recordings, oldest first.
	ListRecordings() []Recording

	// ActiveRecordingCount returns the number of sessions currently in
	// StatusRecording. Used for metrics.
	ActiveRecordingCount() int
}

// InMemoryRegistry is a concurrency-safe in-memory implementation of Registry.
// It uses a Store for persistence; by default that is an InMemoryStore.
type InMemoryRegistry struct {
	mu    sync.RWMutex
	store Store
}

// NewInMemoryRegistry constructs a registry with a default in-memory store.
func NewInMemoryRegistry() *InMemoryRegistry {
	return NewInMemoryRegistryWithStore(NewInMemoryStore())
}

// NewInMemoryRegistryWithStore constructs a registry that uses the given
// Store. Useful for testing or for plugging in a different persistence
// backend.
func NewInMemoryRegistryWithStore(store Store) *InMemoryRegistry {
	return &InMemoryRegistry{store: store}
}

// CreateRoom implements Registry.CreateRoom.
func (r *InMemoryRegistry) CreateRoom(name string) Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := &Room{
		ID:        RoomID(uuid.NewString()),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Members:   []Member{},
	}
	r.store.SetRoom(room)
	return copyRoom(room)
}

// GetRoom implements Registry.GetRoom.
func (r *InMemoryRegistry) GetRoom(id RoomID) (Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.store.GetRoom(id)
	if !ok {
		return Room{}, false
	}
	return copyRoom(room), true
}

// AppendMember implements Registry.AppendMember.
func (r *InMemoryRegistry) AppendMember(id RoomID, m Member) (Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.store.GetRoom(id)
	if !ok {
		return Room{}, ErrRoomNotFound
	}
	room.Members = append(room.Members, m)
	r.store.SetRoom(room)
	return copyRoom(room), nil
}

// ListRooms implements Registry.ListRooms.
func (r *InMemoryRegistry) ListRooms() []Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.store.ListRoomIDs()
	out := make([]Room, 0, len(ids))
	for _, id := range ids {
		if room, ok := r.store.GetRoom(id); ok {
			out = append(out, copyRoom(room))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// CreateRecording implements Registry.CreateRecording. The session creation
// and the room flag update happen under one lock so the flag and the
// active-recording reference are never observed out of sync.
func (r *InMemoryRegistry) CreateRecording(roomID RoomID, resourceID, sid string) (Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.store.GetRoom(roomID)
	if !ok {
		return Recording{}, ErrRoomNotFound
	}
	if room.Recording {
		return Recording{}, ErrAlreadyRecording
	}

	rec := &Recording{
		ID:         RecordingID(uuid.NewString()),
		RoomID:     roomID,
		ResourceID: resourceID,
		SID:        sid,
		StartedAt:  time.Now().UTC(),
		Status:     StatusRecording,
		Files:      []RecordedFile{},
	}
	r.store.SetRecording(rec)

	room.Recording = true
	room.ActiveRecording = rec.ID
	r.store.SetRoom(room)

	return copyRecording(rec), nil
}

// GetRecording implements Registry.GetRecording.
func (r *InMemoryRegistry) GetRecording(id RecordingID) (Recording, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.store.GetRecording(id)
	if !ok {
		return Recording{}, false
	}
	return copyRecording(rec), true
}

// CompleteRecording implements Registry.CompleteRecording.
func (r *InMemoryRegistry) CompleteRecording(id RecordingID, files []RecordedFile) (Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.store.GetRecording(id)
	if !ok {
		return Recording{}, ErrRecordingNotFound
	}
	if rec.Status == StatusStopped {
		return Recording{}, ErrNotRecording
	}

	now := time.Now().UTC()
	rec.Status = StatusStopped
	rec.StoppedAt = &now
	rec.Files = append([]RecordedFile{}, files...)
	r.store.SetRecording(rec)

	// The room keeps its reference to the last recording; only the flag is
	// cleared, matching the flag-iff-active invariant.
	if room, ok := r.store.GetRoom(rec.RoomID); ok {
		room.Recording = false
		r.store.SetRoom(room)
	}

	return copyRecording(rec), nil
}

// ListRecordings implements Registry.ListRecordings.
func (r *InMemoryRegistry) ListRecordings() []Recording {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.store.ListRecordingIDs()
	out := make([]Recording, 0, len(ids))
	for _, id := range ids {
		if rec, ok := r.store.GetRecording(id); ok {
			out = append(out, copyRecording(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// ActiveRecordingCount implements Registry.ActiveRecordingCount.
func (r *InMemoryRegistry) ActiveRecordingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, id := range r.store.ListRecordingIDs() {
		if rec, ok := r.store.GetRecording(id); ok && rec.Status == StatusRecording {
			n++
		}
	}
	return n
}

// copyRoom returns a deep copy so callers never alias internal state.
func copyRoom(room *Room) Room {
	out := *room
	out.Members = append([]Member{}, room.Members...)
	return out
}

func copyRecording(rec *Recording) Recording {
	out := *rec
	out.Files = append([]RecordedFile{}, rec.Files...)
	return out
}
