package agora

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		AppID:          "app1",
		CustomerID:     "cust",
		CustomerSecret: "secret",
		BaseURL:        srv.URL,
		Storage:        StorageConfig{Vendor: 2, Region: 7, Bucket: "bucket"},
	})
}

func TestClient_Acquire(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if user, pass, ok := r.BasicAuth(); !ok || user != "cust" || pass != "secret" {
			t.Errorf("missing or wrong basic auth: %q %q", user, pass)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"resourceId": "R1"})
	})

	res, err := c.Acquire(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if res.ResourceID != "R1" {
		t.Errorf("expected resource R1, got %q", res.ResourceID)
	}
	if gotPath != "/v1/apps/app1/cloud_recording/acquire" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotBody["cname"] != "room-1" || gotBody["uid"] != "100" {
		t.Errorf("unexpected payload: %v", gotBody)
	}
	cr := gotBody["clientRequest"].(map[string]any)
	if cr["resourceExpiredHour"] != float64(24) {
		t.Errorf("expected resourceExpiredHour 24, got %v", cr["resourceExpiredHour"])
	}
}

func TestClient_Acquire_missing_resource_id(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 432})
	})

	res, err := c.Acquire(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	// The decision that an empty resource id is an error belongs to the
	// orchestrator; the gateway just reports what it saw.
	if res.ResourceID != "" {
		t.Errorf("expected empty resource id, got %q", res.ResourceID)
	}
}

func TestClient_Start(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"resourceId": "R1", "sid": "S1"})
	})

	res, err := c.Start(context.Background(), "R1", "room-1", "100", "tok")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.SID != "S1" {
		t.Errorf("expected sid S1, got %q", res.SID)
	}
	if gotPath != "/v1/apps/app1/cloud_recording/resourceid/R1/mode/mix/start" {
		t.Errorf("unexpected path %q", gotPath)
	}

	cr := gotBody["clientRequest"].(map[string]any)
	if cr["token"] != "tok" {
		t.Errorf("expected token in clientRequest, got %v", cr["token"])
	}
	rc := cr["recordingConfig"].(map[string]any)
	if rc["streamTypes"] != float64(2) || rc["maxIdleTime"] != float64(30) {
		t.Errorf("unexpected recordingConfig: %v", rc)
	}
	tc := rc["transcodingConfig"].(map[string]any)
	if tc["mixedVideoLayout"] != float64(1) {
		t.Errorf("expected mixed layout 1, got %v", tc["mixedVideoLayout"])
	}
	fc := cr["recordingFileConfig"].(map[string]any)
	types := fc["avFileType"].([]any)
	if len(types) != 2 || types[0] != "hls" || types[1] != "mp4" {
		t.Errorf("expected dual hls/mp4 output, got %v", types)
	}
	sc := cr["storageConfig"].(map[string]any)
	if sc["vendor"] != float64(2) || sc["bucket"] != "bucket" {
		t.Errorf("unexpected storageConfig: %v", sc)
	}
}

func TestClient_Stop(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{
			"resourceId": "R1",
			"sid":        "S1",
			"serverResponse": map[string]any{
				"fileList": []map[string]any{
					{"fileName": "x.mp4", "trackType": "audio_and_video", "mixedAllUser": true},
					{"fileName": "x.m3u8", "trackType": "audio_and_video"},
				},
			},
		})
	})

	res, err := c.Stop(context.Background(), "R1", "S1", "room-1", "100")
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if res.ErrorCode != nil {
		t.Errorf("expected nil error code, got %v", *res.ErrorCode)
	}
	if len(res.Files) != 2 || res.Files[0].FileName != "x.mp4" || !res.Files[0].MixedAllUser {
		t.Errorf("unexpected files: %+v", res.Files)
	}
	if gotPath != "/v1/apps/app1/cloud_recording/resourceid/R1/sid/S1/mode/mix/stop" {
		t.Errorf("unexpected path %q", gotPath)
	}
}

func TestClient_Stop_error_code(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 435, "reason": "no recording in progress"})
	})

	res, err := c.Stop(context.Background(), "R1", "S1", "room-1", "100")
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if res.ErrorCode == nil || *res.ErrorCode != 435 {
		t.Errorf("expected error code 435, got %v", res.ErrorCode)
	}
}

func TestClient_Query(t *testing.T) {
	var gotMethod, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{
			"resourceId": "R1",
			"sid":        "S1",
			"serverResponse": map[string]any{
				"status":   5,
				"fileList": []map[string]any{{"fileName": "x.m3u8"}},
			},
		})
	})

	res, err := c.Query(context.Background(), "R1", "S1")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if gotMethod != http.MethodGet {
		t.Errorf("expected GET, got %s", gotMethod)
	}
	if gotPath != "/v1/apps/app1/cloud_recording/resourceid/R1/sid/S1/mode/mix/query" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if res.Status != 5 || len(res.Files) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestClient_decode_failure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("<html>forbidden</html>"))
	})

	if _, err := c.Acquire(context.Background(), "room-1"); err == nil {
		t.Error("non-JSON response should surface as an error")
	}
}

func TestClient_context_cancellation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Acquire(ctx, "room-1"); err == nil {
		t.Error("canceled context should surface as an error")
	}
}
