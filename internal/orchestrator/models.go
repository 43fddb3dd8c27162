package orchestrator

import "time"

// RoomID uniquely identifies a room.
type RoomID string

// MemberID identifies a member within a room. Callers may supply their own
// (e.g. an existing account id); otherwise one is minted on join.
type MemberID string

// RecordingID uniquely identifies one start-to-stop recording cycle.
type RecordingID string

// RecordingStatus is the lifecycle state of a recording session.
// The only transition is StatusRecording -> StatusStopped.
type RecordingStatus string

const (
	StatusRecording RecordingStatus = "recording"
	StatusStopped   RecordingStatus = "stopped"
)

// Member is one participant of a room. The member list is append-only;
// there is no leave operation.
type Member struct {
	ID       MemberID  `json:"userId"`
	Name     string    `json:"userName"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Room groups members under a channel name. The room's name doubles as the
// RTC channel name for tokens and recording.
type Room struct {
	ID        RoomID    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Members   []Member  `json:"members"`

	// Recording is true exactly while ActiveRecording points at a session
	// whose status is StatusRecording.
	Recording       bool        `json:"isRecording"`
	ActiveRecording RecordingID `json:"currentRecordingId,omitempty"`
}

// RecordedFile describes one output file reported by the recording provider
// at stop time.
type RecordedFile struct {
	FileName       string `json:"fileName"`
	TrackType      string `json:"trackType,omitempty"`
	MixedAllUser   bool   `json:"mixedAllUser,omitempty"`
	SliceStartTime int64  `json:"sliceStartTime,omitempty"`
}

// Recording is one cloud-recording session of a room. ResourceID and SID are
// assigned by the provider at start and never change afterwards. Files stays
// empty until the session is stopped and is fixed from then on.
type Recording struct {
	ID         RecordingID     `json:"id"`
	RoomID     RoomID          `json:"roomId"`
	ResourceID string          `json:"resourceId"`
	SID        string          `json:"sid"`
	StartedAt  time.Time       `json:"startedAt"`
	StoppedAt  *time.Time      `json:"stoppedAt,omitempty"`
	Status     RecordingStatus `json:"status"`
	Files      []RecordedFile  `json:"fileList"`
}
