package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RecorderUID is the reserved subject identity under which the cloud recorder
// joins a channel.
const RecorderUID = "100"

// containerSuffix marks single-file container output. The provider also
// produces segmented-streaming files (.m3u8 and .ts) which are never exposed
// to clients.
const containerSuffix = ".mp4"

const (
	DefaultCallTimeout = 10 * time.Second
	DefaultTokenTTL    = time.Hour
	DefaultPresignTTL  = time.Hour
)

const (
	defaultRoomName   = "default_room"
	defaultMemberName = "Anonymous"
)

// ServiceOptions tunes outbound-call behavior. Zero values fall back to the
// package defaults.
type ServiceOptions struct {
	// CallTimeout bounds every outbound gateway call.
	CallTimeout time.Duration
	// TokenTTL bounds minted join credentials (token and privileges alike).
	TokenTTL time.Duration
	// PresignTTL bounds generated file URLs.
	PresignTTL time.Duration
}

// Service implements the room and recording lifecycle protocol: it sequences
// calls to the token minter, recording provider, and object store, and keeps
// the Registry consistent with the outcomes.
type Service struct {
	registry Registry
	tokens   TokenMinter
	provider RecordingProvider
	objects  ObjectStore

	callTimeout time.Duration
	tokenTTL    time.Duration
	presignTTL  time.Duration

	// Per-room locks serialize the whole start/stop sequence so the
	// conflict check and the flag write act as one step even though
	// gateway calls happen in between.
	mu    sync.Mutex
	locks map[RoomID]*sync.Mutex
}

// NewService returns a Service using the given registry and gateways.
func NewService(registry Registry, tokens TokenMinter, provider RecordingProvider, objects ObjectStore, opts ServiceOptions) *Service {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = DefaultPresignTTL
	}
	return &Service{
		registry:    registry,
		tokens:      tokens,
		provider:    provider,
		objects:     objects,
		callTimeout: opts.CallTimeout,
		tokenTTL:    opts.TokenTTL,
		presignTTL:  opts.PresignTTL,
		locks:       make(map[RoomID]*sync.Mutex),
	}
}

// CreateRoom mints a fresh room. Always succeeds.
func (s *Service) CreateRoom(name string) Room {
	if name == "" {
		name = defaultRoomName
	}
	return s.registry.CreateRoom(name)
}

// JoinResult is the outcome of a successful join.
type JoinResult struct {
	RoomID RoomID
	Member Member
	Token  string
}

// JoinRoom appends a member to the room and mints a join credential scoped to
// the room's channel and the member identity. The member append is durable
// even if minting subsequently fails; the mint failure surfaces as an
// UpstreamError.
func (s *Service) JoinRoom(roomID RoomID, memberID MemberID, name string) (JoinResult, error) {
	room, ok := s.registry.GetRoom(roomID)
	if !ok {
		return JoinResult{}, ErrRoomNotFound
	}

	if memberID == "" {
		memberID = MemberID(uuid.NewString())
	}
	if name == "" {
		name = defaultMemberName
	}
	m := Member{ID: memberID, Name: name, JoinedAt: time.Now().UTC()}
	if _, err := s.registry.AppendMember(roomID, m); err != nil {
		return JoinResult{}, err
	}

	token, err := s.tokens.Mint(room.Name, string(memberID), s.tokenTTL, s.tokenTTL)
	if err != nil {
		return JoinResult{}, &UpstreamError{Op: "mint join token", Err: err}
	}
	return JoinResult{RoomID: roomID, Member: m, Token: token}, nil
}

// StartRecordingResult is the outcome of a successful recording start.
type StartRecordingResult struct {
	RecordingID RecordingID
	ResourceID  string
	SID         string
}

// StartRecording acquires a provider resource for the room's channel, starts
// cloud recording under the recorder identity, and registers the new session.
// At most one recording is active per room at a time.
func (s *Service) StartRecording(ctx context.Context, roomID RoomID) (StartRecordingResult, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, ok := s.registry.GetRoom(roomID)
	if !ok {
		return StartRecordingResult{}, ErrRoomNotFound
	}
	if room.Recording {
		return StartRecordingResult{}, ErrAlreadyRecording
	}

	acq, err := s.acquire(ctx, room.Name)
	if err != nil {
		return StartRecordingResult{}, err
	}

	token, err := s.tokens.Mint(room.Name, RecorderUID, s.tokenTTL, s.tokenTTL)
	if err != nil {
		return StartRecordingResult{}, &UpstreamError{Op: "mint recorder token", Err: err}
	}

	// If the start call fails the acquired resource is not released; it
	// expires on the provider side after its configured lifetime.
	sid, err := s.start(ctx, acq.ResourceID, room.Name, token)
	if err != nil {
		return StartRecordingResult{}, err
	}

	rec, err := s.registry.CreateRecording(roomID, acq.ResourceID, sid)
	if err != nil {
		return StartRecordingResult{}, err
	}
	return StartRecordingResult{RecordingID: rec.ID, ResourceID: rec.ResourceID, SID: rec.SID}, nil
}

// StopRecordingResult is the outcome of a successful recording stop.
type StopRecordingResult struct {
	RecordingID RecordingID
	Files       []RecordedFile
}

// StopRecording stops the room's active recording, keeps only the
// single-file container output from the provider's file list, and transitions
// the session to stopped.
func (s *Service) StopRecording(ctx context.Context, roomID RoomID) (StopRecordingResult, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, ok := s.registry.GetRoom(roomID)
	if !ok {
		return StopRecordingResult{}, ErrRoomNotFound
	}
	if !room.Recording {
		return StopRecordingResult{}, ErrNotRecording
	}
	rec, ok := s.registry.GetRecording(room.ActiveRecording)
	if !ok {
		return StopRecordingResult{}, ErrRecordingNotFound
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	res, err := s.provider.Stop(callCtx, rec.ResourceID, rec.SID, room.Name, RecorderUID)
	if err != nil {
		return StopRecordingResult{}, &UpstreamError{Op: "stop recording", Err: err}
	}
	if res.ErrorCode != nil {
		return StopRecordingResult{}, &UpstreamError{Op: "stop recording", Err: fmt.Errorf("provider error code %d", *res.ErrorCode)}
	}

	updated, err := s.registry.CompleteRecording(rec.ID, containerFiles(res.Files))
	if err != nil {
		return StopRecordingResult{}, err
	}
	return StopRecordingResult{RecordingID: updated.ID, Files: updated.Files}, nil
}

// ResolvedFile is one per-file URL resolution outcome. Err stays internal so
// callers can log skipped files while the external contract remains coarse.
type ResolvedFile struct {
	FileName string `json:"filename"`
	URL      string `json:"url,omitempty"`
	Err      error  `json:"-"`
}

// GetRecording returns the stored recording record plus one resolution
// outcome per recorded file. Per-file presign failures are reported in the
// outcome, not as an overall error.
func (s *Service) GetRecording(ctx context.Context, id RecordingID) (Recording, []ResolvedFile, error) {
	rec, ok := s.registry.GetRecording(id)
	if !ok {
		return Recording{}, nil, ErrRecordingNotFound
	}

	resolved := make([]ResolvedFile, 0, len(rec.Files))
	for _, f := range rec.Files {
		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		url, err := s.objects.PresignURL(callCtx, f.FileName, s.presignTTL)
		cancel()
		resolved = append(resolved, ResolvedFile{FileName: f.FileName, URL: url, Err: err})
	}
	return rec, resolved, nil
}

// StatusResult is the provider's view of an active recording.
type StatusResult struct {
	RecordingID RecordingID
	Status      int
	Files       []RecordedFile
}

// RecordingStatus queries the provider for the state of the room's active
// recording.
func (s *Service) RecordingStatus(ctx context.Context, roomID RoomID) (StatusResult, error) {
	room, ok := s.registry.GetRoom(roomID)
	if !ok {
		return StatusResult{}, ErrRoomNotFound
	}
	if !room.Recording {
		return StatusResult{}, ErrNotRecording
	}
	rec, ok := s.registry.GetRecording(room.ActiveRecording)
	if !ok {
		return StatusResult{}, ErrRecordingNotFound
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	q, err := s.provider.Query(callCtx, rec.ResourceID, rec.SID)
	if err != nil {
		return StatusResult{}, &UpstreamError{Op: "query recording", Err: err}
	}
	return StatusResult{RecordingID: rec.ID, Status: q.Status, Files: recordedFiles(q.Files)}, nil
}

// ListRooms returns all rooms, oldest first.
func (s *Service) ListRooms() []Room {
	return s.registry.ListRooms()
}

// ListRecordings returns all recording sessions, oldest first.
func (s *Service) ListRecordings() []Recording {
	return s.registry.ListRecordings()
}

func (s *Service) acquire(ctx context.Context, channel string) (AcquireResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	acq, err := s.provider.Acquire(callCtx, channel)
	if err != nil {
		return AcquireResult{}, &UpstreamError{Op: "acquire recording resource", Err: err}
	}
	if acq.ResourceID == "" {
		return AcquireResult{}, &UpstreamError{Op: "acquire recording resource", Err: errMissingResourceID}
	}
	return acq, nil
}

func (s *Service) start(ctx context.Context, resourceID, channel, token string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	res, err := s.provider.Start(callCtx, resourceID, channel, RecorderUID, token)
	if err != nil {
		return "", &UpstreamError{Op: "start recording", Err: err}
	}
	if res.SID == "" {
		return "", &UpstreamError{Op: "start recording", Err: errMissingSID}
	}
	return res.SID, nil
}

func (s *Service) roomLock(id RoomID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// containerFiles keeps only entries with the single-file container suffix.
func containerFiles(in []ProviderFile) []RecordedFile {
	out := make([]RecordedFile, 0, len(in))
	for _, f := range in {
		if !strings.HasSuffix(f.FileName, containerSuffix) {
			continue
		}
		out = append(out, recordedFile(f))
	}
	return out
}

// recordedFiles converts provider entries without filtering.
func recordedFiles(in []ProviderFile) []RecordedFile {
	out := make([]RecordedFile, 0, len(in))
	for _, f := range in {
		out = append(out, recordedFile(f))
	}
	return out
}

func recordedFile(f ProviderFile) RecordedFile {
	return RecordedFile{
		FileName:       f.FileName,
		TrackType:      f.TrackType,
		MixedAllUser:   f.MixedAllUser,
		SliceStartTime: f.SliceStartTime,
	}
}
