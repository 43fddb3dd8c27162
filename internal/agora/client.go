// Package agora wraps the Agora cloud-recording REST API and the RTC token
// builder behind the orchestrator's gateway contracts.
package agora

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"rtc-orchestrator/internal/orchestrator"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.agora.io"

// StorageConfig tells the provider where to deposit recorded files.
// Vendor 2 is Alibaba Cloud OSS; region 7 is Hong Kong.
type StorageConfig struct {
	Vendor    int    `json:"vendor"`
	Region    int    `json:"region"`
	Bucket    string `json:"bucket"`
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
}

// Config carries the credentials and storage target for a Client.
// CustomerID/CustomerSecret authenticate the RESTful API (basic auth);
// AppID scopes the cloud-recording project.
type Config struct {
	AppID          string
	CustomerID     string
	CustomerSecret string
	BaseURL        string
	Storage        StorageConfig
	HTTPClient     *http.Client
}

// Client is a typed client for the cloud-recording API. It implements
// orchestrator.RecordingProvider.
type Client struct {
	appID          string
	customerID     string
	customerSecret string
	baseURL        string
	storage        StorageConfig
	http           *http.Client
}

// NewClient returns a Client for the given config. BaseURL and HTTPClient
// default when unset; callers control per-request deadlines via context.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		appID:          cfg.AppID,
		customerID:     cfg.CustomerID,
		customerSecret: cfg.CustomerSecret,
		baseURL:        cfg.BaseURL,
		storage:        cfg.Storage,
		http:           cfg.HTTPClient,
	}
}

type acquireClientRequest struct {
	ResourceExpiredHour int `json:"resourceExpiredHour"`
	Scene               int `json:"scene"`
}

type acquireRequest struct {
	Cname         string               `json:"cname"`
	UID           string               `json:"uid"`
	ClientRequest acquireClientRequest `json:"clientRequest"`
}

type acquireResponse struct {
	ResourceID string `json:"resourceId"`
}

// Acquire implements orchestrator.RecordingProvider. The returned resource is
// valid for 24 hours.
func (c *Client) Acquire(ctx context.Context, channel string) (orchestrator.AcquireResult, error) {
	payload := acquireRequest{
		Cname:         channel,
		UID:           orchestrator.RecorderUID,
		ClientRequest: acquireClientRequest{ResourceExpiredHour: 24, Scene: 0},
	}

	var resp acquireResponse
	path := fmt.Sprintf("/v1/apps/%s/cloud_recording/acquire", c.appID)
	if err := c.post(ctx, path, payload, &resp); err != nil {
		return orchestrator.AcquireResult{}, err
	}
	return orchestrator.AcquireResult{ResourceID: resp.ResourceID}, nil
}

type transcodingConfig struct {
	Height           int    `json:"height"`
	Width            int    `json:"width"`
	Bitrate          int    `json:"bitrate"`
	FPS              int    `json:"fps"`
	MixedVideoLayout int    `json:"mixedVideoLayout"`
	BackgroundColor  string `json:"backgroundColor"`
}

type recordingConfig struct {
	ChannelType       int               `json:"channelType"`
	StreamTypes       int               `json:"streamTypes"`
	AudioProfile      int               `json:"audioProfile"`
	MaxIdleTime       int               `json:"maxIdleTime"`
	TranscodingConfig transcodingConfig `json:"transcodingConfig"`
}

type recordingFileConfig struct {
	AVFileType []string `json:"avFileType"`
}

type startClientRequest struct {
	Token               string              `json:"token"`
	RecordingConfig     recordingConfig     `json:"recordingConfig"`
	RecordingFileConfig recordingFileConfig `json:"recordingFileConfig"`
	StorageConfig       StorageConfig       `json:"storageConfig"`
}

type startRequest struct {
	Cname         string             `json:"cname"`
	UID           string             `json:"uid"`
	ClientRequest startClientRequest `json:"clientRequest"`
}

type startResponse struct {
	ResourceID string `json:"resourceId"`
	SID        string `json:"sid"`
}

// Start implements orchestrator.RecordingProvider. The recording runs in mix
// mode with a fixed configuration: audio plus mixed-layout video transcoding,
// dual hls/mp4 output, deposited into the configured storage bucket.
func (c *Client) Start(ctx context.Context, resourceID, channel, uid, token string) (orchestrator.StartResult, error) {
	payload := startRequest{
		Cname: channel,
		UID:   uid,
		ClientRequest: startClientRequest{
			Token: token,
			RecordingConfig: recordingConfig{
				ChannelType:  0,
				StreamTypes:  2,
				AudioProfile: 1,
				MaxIdleTime:  30,
				TranscodingConfig: transcodingConfig{
					Height:           640,
					Width:            360,
					Bitrate:          500,
					FPS:              15,
					MixedVideoLayout: 1,
					BackgroundColor:  "#FF0000",
				},
			},
			RecordingFileConfig: recordingFileConfig{AVFileType: []string{"hls", "mp4"}},
			StorageConfig:       c.storage,
		},
	}

	var resp startResponse
	path := fmt.Sprintf("/v1/apps/%s/cloud_recording/resourceid/%s/mode/mix/start", c.appID, resourceID)
	if err := c.post(ctx, path, payload, &resp); err != nil {
		return orchestrator.StartResult{}, err
	}
	return orchestrator.StartResult{SID: resp.SID}, nil
}

type stopRequest struct {
	Cname         string   `json:"cname"`
	UID           string   `json:"uid"`
	ClientRequest struct{} `json:"clientRequest"`
}

type providerFile struct {
	FileName       string `json:"fileName"`
	TrackType      string `json:"trackType"`
	UID            string `json:"uid"`
	MixedAllUser   bool   `json:"mixedAllUser"`
	IsPlayable     bool   `json:"isPlayable"`
	SliceStartTime int64  `json:"sliceStartTime"`
}

type stopResponse struct {
	Code           *int   `json:"code"`
	ResourceID     string `json:"resourceId"`
	SID            string `json:"sid"`
	ServerResponse struct {
		FileList []providerFile `json:"fileList"`
	} `json:"serverResponse"`
}

// Stop implements orchestrator.RecordingProvider. A non-nil error code in the
// response body means the provider rejected the stop.
func (c *Client) Stop(ctx context.Context, resourceID, sid, channel, uid string) (orchestrator.StopResult, error) {
	payload := stopRequest{Cname: channel, UID: uid}

	var resp stopResponse
	path := fmt.Sprintf("/v1/apps/%s/cloud_recording/resourceid/%s/sid/%s/mode/mix/stop", c.appID, resourceID, sid)
	if err := c.post(ctx, path, payload, &resp); err != nil {
		return orchestrator.StopResult{}, err
	}
	return orchestrator.StopResult{
		ErrorCode: resp.Code,
		Files:     toProviderFiles(resp.ServerResponse.FileList),
	}, nil
}

type queryResponse struct {
	ResourceID     string `json:"resourceId"`
	SID            string `json:"sid"`
	ServerResponse struct {
		Status   int            `json:"status"`
		FileList []providerFile `json:"fileList"`
	} `json:"serverResponse"`
}

// Query implements orchestrator.RecordingProvider.
func (c *Client) Query(ctx context.Context, resourceID, sid string) (orchestrator.QueryResult, error) {
	var resp queryResponse
	path := fmt.Sprintf("/v1/apps/%s/cloud_recording/resourceid/%s/sid/%s/mode/mix/query", c.appID, resourceID, sid)
	if err := c.get(ctx, path, &resp); err != nil {
		return orchestrator.QueryResult{}, err
	}
	return orchestrator.QueryResult{
		Status: resp.ServerResponse.Status,
		Files:  toProviderFiles(resp.ServerResponse.FileList),
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.SetBasicAuth(c.customerID, c.customerSecret)

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	// Error outcomes are detected from the decoded body (missing ids, error
	// codes), so any well-formed response is decoded regardless of status.
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response (%s): %w", res.Status, err)
	}
	return nil
}

func toProviderFiles(in []providerFile) []orchestrator.ProviderFile {
	out := make([]orchestrator.ProviderFile, 0, len(in))
	for _, f := range in {
		out = append(out, orchestrator.ProviderFile{
			FileName:       f.FileName,
			TrackType:      f.TrackType,
			MixedAllUser:   f.MixedAllUser,
			SliceStartTime: f.SliceStartTime,
		})
	}
	return out
}
