package orchestrator

// Store is the persistence abstraction for rooms and recordings.
// Implementations can be in-memory, file-based, or remote. The Registry uses
// Store for all reads and writes and layers locking and snapshotting on top;
// callers of Registry do not need to know which Store is used.
type Store interface {
	GetRoom(id RoomID) (*Room, bool)
	SetRoom(r *Room)
	ListRoomIDs() []RoomID

	GetRecording(id RecordingID) (*Recording, bool)
	SetRecording(rec *Recording)
	ListRecordingIDs() []RecordingID
}

// InMemoryStore is an in-memory implementation of Store.
type InMemoryStore struct {
	rooms      map[RoomID]*Room
	recordings map[RecordingID]*Recording
}

// NewInMemoryStore returns a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		rooms:      make(map[RoomID]*Room),
		recordings: make(map[RecordingID]*Recording),
	}
}

// GetRoom implements Store.GetRoom.
func (s *InMemoryStore) GetRoom(id RoomID) (*Room, bool) {
	r, ok := s.rooms[id]
	return r, ok
}

// SetRoom implements Store.SetRoom.
func (s *InMemoryStore) SetRoom(r *Room) {
	s.rooms[r.ID] = r
}

// ListRoomIDs implements Store.ListRoomIDs.
func (s *InMemoryStore) ListRoomIDs() []RoomID {
	ids := make([]RoomID, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	return ids
}

// GetRecording implements Store.GetRecording.
func (s *InMemoryStore) GetRecording(id RecordingID) (*Recording, bool) {
	rec, ok := s.recordings[id]
	return rec, ok
}

// SetRecording implements Store.SetRecording.
func (s *InMemoryStore) SetRecording(rec *Recording) {
	s.recordings[rec.ID] = rec
}

// ListRecordingIDs implements Store.ListRecordingIDs.
func (s *InMemoryStore) ListRecordingIDs() []RecordingID {
	ids := make([]RecordingID, 0, len(s.recordings))
	for id := range s.recordings {
		ids = append(ids, id)
	}
	return ids
}
