package orchestrator

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"rtc-orchestrator/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the orchestrator HTTP endpoints using go-chi. Every
// response carries the {success, ...} envelope.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, Logger, and
// optional Metrics. Metrics may be nil to disable metric recording (e.g. in
// tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log, metrics: m}
}

// Routes assembles the /api/v1 route tree.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/rooms", func(r chi.Router) {
		r.Get("/", h.ListRooms)
		r.Post("/", h.CreateRoom)
		r.Route("/{room_id}", func(r chi.Router) {
			r.Post("/join", h.JoinRoom)
			r.Route("/record", func(r chi.Router) {
				r.Post("/start", h.StartRecording)
				r.Post("/stop", h.StopRecording)
				r.Get("/status", h.RecordingStatus)
			})
		})
	})
	r.Route("/recordings", func(r chi.Router) {
		r.Get("/", h.ListRecordings)
		r.Get("/{recording_id}", h.GetRecording)
	})
	return r
}

type createRoomRequest struct {
	RoomName string `json:"roomName"`
}

type createRoomResponse struct {
	Success  bool   `json:"success"`
	RoomID   RoomID `json:"roomId"`
	RoomName string `json:"roomName"`
}

// CreateRoom handles POST /rooms. Body: { "roomName": "standup" }; the name
// defaults when the body is empty.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeBadRequest(w, err)
		return
	}

	room := h.svc.CreateRoom(req.RoomName)

	h.log.Info("room created",
		slog.String("room_id", string(room.ID)),
		slog.String("room_name", room.Name))
	if h.metrics != nil {
		h.metrics.IncRoomsCreated()
	}
	writeJSON(w, http.StatusOK, createRoomResponse{Success: true, RoomID: room.ID, RoomName: room.Name})
}

type joinRoomRequest struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type joinRoomResponse struct {
	Success bool   `json:"success"`
	RoomID  RoomID `json:"roomId"`
	User    Member `json:"user"`
	Token   string `json:"token"`
}

// JoinRoom handles POST /rooms/{room_id}/join.
// Body: { "userId": "...", "userName": "..." }, both optional.
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID := RoomID(chi.URLParam(r, "room_id"))

	var req joinRoomRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeBadRequest(w, err)
		return
	}

	res, err := h.svc.JoinRoom(roomID, MemberID(req.UserID), req.UserName)
	if err != nil {
		h.writeError(w, "join room", err)
		return
	}

	h.log.Info("member joined",
		slog.String("room_id", string(roomID)),
		slog.String("user_id", string(res.Member.ID)))
	if h.metrics != nil {
		h.metrics.IncMembersJoined()
	}
	writeJSON(w, http.StatusOK, joinRoomResponse{Success: true, RoomID: roomID, User: res.Member, Token: res.Token})
}

type startRecordingResponse struct {
	Success     bool        `json:"success"`
	RecordingID RecordingID `json:"recordingId"`
	ResourceID  string      `json:"resourceId"`
	SID         string      `json:"sid"`
}

// StartRecording handles POST /rooms/{room_id}/record/start.
func (h *Handler) StartRecording(w http.ResponseWriter, r *http.Request) {
	roomID := RoomID(chi.URLParam(r, "room_id"))

	res, err := h.svc.StartRecording(r.Context(), roomID)
	if err != nil {
		h.writeError(w, "start recording", err)
		return
	}

	h.log.Info("recording started",
		slog.String("room_id", string(roomID)),
		slog.String("recording_id", string(res.RecordingID)),
		slog.String("sid", res.SID))
	if h.metrics != nil {
		h.metrics.IncRecordingsStarted()
	}
	writeJSON(w, http.StatusOK, startRecordingResponse{
		Success:     true,
		RecordingID: res.RecordingID,
		ResourceID:  res.ResourceID,
		SID:         res.SID,
	})
}

type stopRecordingResponse struct {
	Success     bool           `json:"success"`
	RecordingID RecordingID    `json:"recordingId"`
	FileList    []RecordedFile `json:"fileList"`
}

// StopRecording handles POST /rooms/{room_id}/record/stop.
func (h *Handler) StopRecording(w http.ResponseWriter, r *http.Request) {
	roomID := RoomID(chi.URLParam(r, "room_id"))

	res, err := h.svc.StopRecording(r.Context(), roomID)
	if err != nil {
		h.writeError(w, "stop recording", err)
		return
	}

	h.log.Info("recording stopped",
		slog.String("room_id", string(roomID)),
		slog.String("recording_id", string(res.RecordingID)),
		slog.Int("files", len(res.Files)))
	if h.metrics != nil {
		h.metrics.IncRecordingsStopped()
	}
	writeJSON(w, http.StatusOK, stopRecordingResponse{Success: true, RecordingID: res.RecordingID, FileList: res.Files})
}

type recordingStatusResponse struct {
	Success     bool           `json:"success"`
	RecordingID RecordingID    `json:"recordingId"`
	Status      int            `json:"status"`
	Files       []RecordedFile `json:"files"`
}

// RecordingStatus handles GET /rooms/{room_id}/record/status.
func (h *Handler) RecordingStatus(w http.ResponseWriter, r *http.Request) {
	roomID := RoomID(chi.URLParam(r, "room_id"))

	res, err := h.svc.RecordingStatus(r.Context(), roomID)
	if err != nil {
		h.writeError(w, "query recording status", err)
		return
	}

	writeJSON(w, http.StatusOK, recordingStatusResponse{
		Success:     true,
		RecordingID: res.RecordingID,
		Status:      res.Status,
		Files:       res.Files,
	})
}

type getRecordingResponse struct {
	Success   bool           `json:"success"`
	Recording Recording      `json:"recording"`
	Files     []ResolvedFile `json:"files"`
}

// GetRecording handles GET /recordings/{recording_id}. Files that fail URL
// resolution are logged and omitted from the response.
func (h *Handler) GetRecording(w http.ResponseWriter, r *http.Request) {
	id := RecordingID(chi.URLParam(r, "recording_id"))

	rec, resolved, err := h.svc.GetRecording(r.Context(), id)
	if err != nil {
		h.writeError(w, "get recording", err)
		return
	}

	files := make([]ResolvedFile, 0, len(resolved))
	for _, f := range resolved {
		if f.Err != nil {
			h.log.Warn("file url resolution skipped",
				slog.String("recording_id", string(id)),
				slog.String("file", f.FileName),
				slog.String("error", f.Err.Error()))
			continue
		}
		files = append(files, f)
	}
	writeJSON(w, http.StatusOK, getRecordingResponse{Success: true, Recording: rec, Files: files})
}

type listRoomsResponse struct {
	Success bool   `json:"success"`
	Rooms   []Room `json:"rooms"`
}

// ListRooms handles GET /rooms.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listRoomsResponse{Success: true, Rooms: h.svc.ListRooms()})
}

type listRecordingsResponse struct {
	Success    bool        `json:"success"`
	Recordings []Recording `json:"recordings"`
}

// ListRecordings handles GET /recordings.
func (h *Handler) ListRecordings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listRecordingsResponse{Success: true, Recordings: h.svc.ListRecordings()})
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeError maps service errors to the external status codes: NotFound 404,
// Conflict 400, UpstreamError and anything unexpected 500.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrRecordingNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrAlreadyRecording), errors.Is(err, ErrNotRecording):
		status = http.StatusBadRequest
	}

	var upstream *UpstreamError
	switch {
	case errors.As(err, &upstream):
		h.log.Error(op+" failed upstream",
			slog.String("op", upstream.Op),
			slog.String("error", err.Error()))
		if h.metrics != nil {
			h.metrics.IncUpstreamErrors()
		}
	case status == http.StatusInternalServerError:
		h.log.Error(op+" failed", slog.String("error", err.Error()))
	default:
		h.log.Debug(op+" rejected", slog.String("error", err.Error()))
	}

	writeJSON(w, status, errorResponse{Success: false, Error: err.Error()})
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, err error) {
	h.log.Debug("invalid request body", slog.String("error", err.Error()))
	writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Error: "invalid request body"})
}

// decodeBody parses an optional JSON body; an empty body leaves dst zeroed.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
