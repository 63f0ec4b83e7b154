package audiostash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
)

const bearerPrefix = "Bearer "

var (
	// ErrDuplicate is returned when the backend refuses to overwrite an existing object
	ErrDuplicate = errors.New("object already exists")
	// ErrEmptyResult is returned when the backend answers an upload with nothing usable
	ErrEmptyResult = errors.New("upload returned empty result")
)

// Bucket is a storage bucket as listed by the backend
type Bucket struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Public bool   `json:"public"`
}

// UploadResult is the decoded answer to an upload. Newer backends return
// {"Key": ..., "Id": ...}, older ones {"path": ...}; some return a direct
// URL. Every field is optional.
type UploadResult struct {
	Key       string `json:"Key,omitempty"`
	ID        string `json:"Id,omitempty"`
	Path      string `json:"path,omitempty"`
	URL       string `json:"url,omitempty"`
	PublicURL string `json:"publicUrl,omitempty"`
}

// DirectURL returns the URL reported by the backend, if any
func (r *UploadResult) DirectURL() string {
	if r == nil {
		return ""
	}
	if r.URL != "" {
		return r.URL
	}
	return r.PublicURL
}

// StorageError describes a non-2xx answer from the storage backend
type StorageError struct {
	Status  int
	Code    string
	Message string
}

func (e *StorageError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("storage error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("storage error %d: %s", e.Status, e.Message)
}

// Is makes errors.Is(err, ErrDuplicate) match conflicts reported in any shape
func (e *StorageError) Is(target error) bool {
	if target != ErrDuplicate {
		return false
	}
	if e.Status == http.StatusConflict || e.Code == "409" {
		return true
	}
	text := strings.ToLower(e.Code + " " + e.Message)
	return strings.Contains(text, "already exists") || strings.Contains(text, "duplicate")
}

// StorageClient handles communication with the object storage REST API
type StorageClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewStorageClient creates a storage client for the project at baseURL
func NewStorageClient(baseURL, apiKey string) *StorageClient {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.HTTPClient.Timeout = 300 * time.Second
	retryClient.Logger = nil
	// Once retries run out the last response is returned so its status and
	// message reach readStorageError.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			log.WithFields(log.Fields{"method": req.Method, "url": req.URL.Path, "attempt": attempt}).Warn("Retrying storage request")
		}
	}

	return &StorageClient{
		httpClient: retryClient.StandardClient(),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// BaseURL returns the project URL the client talks to
func (c *StorageClient) BaseURL() string {
	return c.baseURL
}

// ListBuckets returns every bucket visible to the configured key
func (c *StorageClient) ListBuckets(ctx context.Context) ([]Bucket, error) {
	resp, err := c.do(ctx, http.MethodGet, "/storage/v1/bucket", nil, nil)
	if err != nil {
		return nil, err
	}
	defer CloseResponse(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, readStorageError(resp)
	}

	var buckets []Bucket
	if err := json.NewDecoder(resp.Body).Decode(&buckets); err != nil {
		return nil, fmt.Errorf("failed to decode bucket list: %w", err)
	}
	return buckets, nil
}

// CreateBucket creates a bucket with the given name
func (c *StorageClient) CreateBucket(ctx context.Context, name string, public bool) error {
	payload, err := json.Marshal(map[string]interface{}{
		"id":     name,
		"name":   name,
		"public": public,
	})
	if err != nil {
		return err
	}

	headers := map[string]string{contentTypeHeader: "application/json"}
	resp, err := c.do(ctx, http.MethodPost, "/storage/v1/bucket", headers, payload)
	if err != nil {
		return err
	}
	defer CloseResponse(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readStorageError(resp)
	}
	return nil
}

// Upload stores data under key in bucket. With upsert set an existing object
// is overwritten instead of rejected.
func (c *StorageClient) Upload(ctx context.Context, bucket, key string, data []byte, contentType string, upsert bool) (*UploadResult, error) {
	headers := map[string]string{
		contentTypeHeader: contentType,
		"x-upsert":        fmt.Sprintf("%t", upsert),
	}
	resp, err := c.do(ctx, http.MethodPost, objectPath(bucket, key), headers, data)
	if err != nil {
		return nil, err
	}
	defer CloseResponse(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readStorageError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// A 2xx is a success whatever the body looks like.
	result := &UploadResult{}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, result); err != nil {
			log.WithField("key", key).Debugf("Ignoring undecodable upload response: %v", err)
		}
	}
	return result, nil
}

// PublicURL returns the public URL of an object, preferring the one reported
// by the backend.
func (c *StorageClient) PublicURL(bucket, key string, result *UploadResult) string {
	if direct := result.DirectURL(); direct != "" {
		return direct
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, bucket, key)
}

func (c *StorageClient) do(ctx context.Context, method, path string, headers map[string]string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Authorization", bearerPrefix+c.apiKey)
	req.Header.Set("apikey", c.apiKey)

	return c.httpClient.Do(req)
}

// objectPath escapes every key segment on its own so that '/' keeps
// separating folders.
func objectPath(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return "/storage/v1/object/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

func readStorageError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var payload struct {
		StatusCode string `json:"statusCode"`
		Error      string `json:"error"`
		Message    string `json:"message"`
	}
	storageErr := &StorageError{Status: resp.StatusCode}
	if err := json.Unmarshal(body, &payload); err == nil {
		storageErr.Code = payload.StatusCode
		storageErr.Message = strings.TrimSpace(payload.Error + " " + payload.Message)
	}
	if storageErr.Message == "" {
		storageErr.Message = strings.TrimSpace(string(body))
	}
	return storageErr
}
