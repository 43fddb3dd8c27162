package orchestrator

import (
	"errors"
	"testing"
	"time"
)

func TestRegistry_CreateRoom_and_GetRoom(t *testing.T) {
	reg := NewInMemoryRegistry()

	room := reg.CreateRoom("standup")
	if room.ID == "" {
		t.Fatal("CreateRoom should mint an id")
	}
	if room.Recording {
		t.Error("new room should not be recording")
	}
	if len(room.Members) != 0 {
		t.Errorf("new room should have no members, got %d", len(room.Members))
	}

	got, ok := reg.GetRoom(room.ID)
	if !ok {
		t.Fatal("GetRoom should find the created room")
	}
	if got.Name != "standup" {
		t.Errorf("expected name standup, got %q", got.Name)
	}
}

func TestRegistry_GetRoom_missing(t *testing.T) {
	reg := NewInMemoryRegistry()
	if _, ok := reg.GetRoom("missing"); ok {
		t.Error("GetRoom on unknown id should return ok=false")
	}
}

func TestRegistry_AppendMember(t *testing.T) {
	reg := NewInMemoryRegistry()
	room := reg.CreateRoom("standup")

	m := Member{ID: "u1", Name: "alice", JoinedAt: time.Now().UTC()}
	updated, err := reg.AppendMember(room.ID, m)
	if err != nil {
		t.Fatalf("AppendMember: %v", err)
	}
	if len(updated.Members) != 1 || updated.Members[0].ID != "u1" {
		t.Errorf("expected one member u1, got %+v", updated.Members)
	}

	if _, err := reg.AppendMember("missing", m); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRegistry_snapshot_isolation(t *testing.T) {
	reg := NewInMemoryRegistry()
	room := reg.CreateRoom("standup")
	_, _ = reg.AppendMember(room.ID, Member{ID: "u1", Name: "alice"})

	snap, _ := reg.GetRoom(room.ID)
	snap.Members[0].Name = "mutated"
	snap.Members = append(snap.Members, Member{ID: "u2"})

	got, _ := reg.GetRoom(room.ID)
	if len(got.Members) != 1 || got.Members[0].Name != "alice" {
		t.Errorf("mutating a snapshot must not affect stored state, got %+v", got.Members)
	}
}

func TestRegistry_CreateRecording_sets_room_state(t *testing.T) {
	reg := NewInMemoryRegistry()
	room := reg.CreateRoom("standup")

	rec, err := reg.CreateRecording(room.ID, "R1", "S1")
	if err != nil {
		t.Fatalf("CreateRecording: %v", err)
	}
	if rec.Status != StatusRecording {
		t.Errorf("expected status recording, got %q", rec.Status)
	}
	if rec.ResourceID != "R1" || rec.SID != "S1" {
		t.Errorf("unexpected identifiers: %+v", rec)
	}

	got, _ := reg.GetRoom(room.ID)
	if !got.Recording {
		t.Error("room flag should be set after CreateRecording")
	}
	if got.ActiveRecording != rec.ID {
		t.Errorf("room should reference the new recording, got %q", got.ActiveRecording)
	}
}

func TestRegistry_CreateRecording_conflicts(t *testing.T) {
	reg := NewInMemoryRegistry()
	room := reg.CreateRoom("standup")

	if _, err := reg.CreateRecording("missing", "R1", "S1"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}

	first, err := reg.CreateRecording(room.ID, "R1", "S1")
	if err != nil {
		t.Fatalf("first CreateRecording: %v", err)
	}
	if _, err := reg.CreateRecording(room.ID, "R2", "S2"); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("expected ErrAlreadyRecording, got %v", err)
	}

	// The losing attempt must not touch the active session's identifiers.
	got, _ := reg.GetRecording(first.ID)
	if got.ResourceID != "R1" || got.SID != "S1" {
		t.Errorf("active recording identifiers changed: %+v", got)
	}
}

func TestRegistry_CompleteRecording(t *testing.T) {
	reg := NewInMemoryRegistry()
	room := reg.CreateRoom("standup")
	rec, _ := reg.CreateRecording(room.ID, "R1", "S1")

	files := []RecordedFile{{FileName: "a.mp4"}}
	done, err := reg.CompleteRecording(rec.ID, files)
	if err != nil {
		t.Fatalf("CompleteRecording: %v", err)
	}
	if done.Status != StatusStopped {
		t.Errorf("expected status stopped, got %q", done.Status)
	}
	if done.StoppedAt == nil {
		t.Error("StoppedAt should be set")
	}
	if len(done.Files) != 1 || done.Files[0].FileName != "a.mp4" {
		t.Errorf("unexpected file list: %+v", done.Files)
	}

	got, _ := reg.GetRoom(room.ID)
	if got.Recording {
		t.Error("room flag should be cleared after CompleteRecording")
	}
}

func TestRegistry_CompleteRecording_one_way(t *testing.T) {
	reg := NewInMemoryRegistry()
	room := reg.CreateRoom("standup")
	rec, _ := reg.CreateRecording(room.ID, "R1", "S1")

	if _, err := reg.CompleteRecording(rec.ID, nil); err != nil {
		t.Fatalf("first CompleteRecording: %v", err)
	}
	if _, err := reg.CompleteRecording(rec.ID, nil); !errors.Is(err, ErrNotRecording) {
		t.Errorf("second CompleteRecording should fail, got %v", err)
	}
	if _, err := reg.CompleteRecording("missing", nil); !errors.Is(err, ErrRecordingNotFound) {
		t.Errorf("expected ErrRecordingNotFound, got %v", err)
	}
}

func TestRegistry_ActiveRecordingCount(t *testing.T) {
	reg := NewInMemoryRegistry()

	if n := reg.ActiveRecordingCount(); n != 0 {
		t.Errorf("expected 0 active recordings, got %d", n)
	}

	r1 := reg.CreateRoom("a")
	r2 := reg.CreateRoom("b")
	rec1, _ := reg.CreateRecording(r1.ID, "R1", "S1")
	_, _ = reg.CreateRecording(r2.ID, "R2", "S2")

	if n := reg.ActiveRecordingCount(); n != 2 {
		t.Errorf("expected 2 active recordings, got %d", n)
	}

	_, _ = reg.CompleteRecording(rec1.ID, nil)
	if n := reg.ActiveRecordingCount(); n != 1 {
		t.Errorf("expected 1 active recording, got %d", n)
	}
}

func TestRegistry_lists(t *testing.T) {
	reg := NewInMemoryRegistry()
	a := reg.CreateRoom("a")
	b := reg.CreateRoom("b")
	_, _ = reg.CreateRecording(a.ID, "R1", "S1")
	_, _ = reg.CreateRecording(b.ID, "R2", "S2")

	rooms := reg.ListRooms()
	if len(rooms) != 2 {
		t.Errorf("expected 2 rooms, got %d", len(rooms))
	}
	recs := reg.ListRecordings()
	if len(recs) != 2 {
		t.Errorf("expected 2 recordings, got %d", len(recs))
	}
}
