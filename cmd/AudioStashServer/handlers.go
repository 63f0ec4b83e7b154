package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jadolg/AudioStash"
	log "github.com/sirupsen/logrus"
)

// healthHandler handles the /health endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	_, err := fmt.Fprintln(w, "OK")
	if err != nil {
		log.Errorf("Failed to write health response: %v", err)
	}
}

// sanitizeHandler reports the storage key a path would be stored under
func (s *Server) sanitizeHandler(w http.ResponseWriter, r *http.Request) {
	var req audiostash.SanitizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	key := audiostash.SanitizeKey(req.Path)
	writeJSON(w, http.StatusOK, audiostash.SanitizeResponse{
		Path: req.Path,
		Key:  key,
		Safe: audiostash.IsSafeKey(key),
	})
}

// uploadHandler stores the multipart "file" under the sanitized "name"
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if s.uploader == nil {
		writeJSONError(w, "storage is not configured", http.StatusServiceUnavailable)
		return
	}

	data, filename, err := readUpload(w, r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = filename
	}
	key := storageKey(name, filename)
	if key != name {
		audiostash.SanitizedKeysMetric.Inc()
	}

	// Only concurrent uploads of the same bytes under one key share a
	// backend call; different payloads each reach storage.
	ctx := context.WithoutCancel(r.Context())
	result, err, shared := s.uploadGroup.Do(uploadGroupKey(key, data), func() (interface{}, error) {
		return s.uploader.UploadBytes(ctx, key, data)
	})
	if err != nil {
		log.Errorf("Failed to upload %s: %v", key, err)
		writeJSONError(w, fmt.Sprintf("failed to upload: %v", err), http.StatusBadGateway)
		return
	}
	if shared {
		log.Debugf("Upload of %s shared with a concurrent request", key)
	}

	writeJSON(w, http.StatusOK, audiostash.UploadResponse{
		Key:    key,
		URL:    result.(string),
		Size:   int64(len(data)),
		Status: "Uploaded",
	})
}

// pipelineHandler starts a pipeline job for the multipart "file"
func (s *Server) pipelineHandler(w http.ResponseWriter, r *http.Request) {
	data, filename, err := readUpload(w, r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	jobID := uuid.NewString()
	jobDir := filepath.Join(s.workDir, "job-"+jobID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		audiostash.ErrorsTotalMetric.Inc()
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	audioPath := filepath.Join(jobDir, storageKey(path.Base(filename), filename))
	if err := os.WriteFile(audioPath, data, 0644); err != nil {
		audiostash.ErrorsTotalMetric.Inc()
		removeAll(jobDir)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	s.jobs.SetStatus(jobID, StatusProcessing)
	go s.runJob(jobID, jobDir, audioPath)

	log.Infof("Started pipeline job %s for %s", jobID, audiostash.LogSafe(filename))
	writeJSON(w, http.StatusAccepted, audiostash.JobResponse{ID: jobID, Status: string(StatusProcessing)})
}

func (s *Server) runJob(jobID, jobDir, audioPath string) {
	defer removeAll(jobDir)

	// Segment files of concurrent jobs must not share a directory.
	pipeline := *s.pipeline
	diarizer := *pipeline.Diarizer
	diarizer.WorkDir = jobDir
	pipeline.Diarizer = &diarizer

	result, err := pipeline.Process(context.Background(), audioPath)
	if err != nil {
		log.Errorf("Pipeline job %s failed: %v", jobID, err)
		s.jobs.SetError(jobID, err.Error())
		return
	}
	s.jobs.SetReady(jobID, result)
	log.Infof("Pipeline job %s is ready", jobID)
}

// jobHandler reports the state of a pipeline job
func (s *Server) jobHandler(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]
	state := s.jobs.GetState(jobID)
	if state == nil {
		writeJSONError(w, "job not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, audiostash.JobResponse{
		ID:     state.ID,
		Status: string(state.Status),
		Error:  state.Error,
		Result: state.Result,
	})
}

// deleteJobHandler forgets a finished job
func (s *Server) deleteJobHandler(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]
	if s.jobs.GetState(jobID) == nil {
		writeJSONError(w, "job not found", http.StatusNotFound)
		return
	}
	if s.jobs.IsProcessing(jobID) {
		writeJSONError(w, "job is still processing", http.StatusConflict)
		return
	}

	s.jobs.Delete(jobID)
	w.WriteHeader(http.StatusNoContent)
}

// searchHandler searches the transcripts of a finished job
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]
	state := s.jobs.GetState(jobID)
	if state == nil {
		writeJSONError(w, "job not found", http.StatusNotFound)
		return
	}
	if !s.jobs.IsReady(jobID) || state.Result == nil {
		writeJSONError(w, fmt.Sprintf("job is %s", state.Status), http.StatusConflict)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSONError(w, "missing required 'q' query parameter", http.StatusBadRequest)
		return
	}

	results := state.Result.Search(query)
	if results == nil {
		results = []audiostash.AudioSegment{}
	}
	writeJSON(w, http.StatusOK, audiostash.SearchResponse{Query: query, Results: results})
}

// readUpload reads the multipart "file" field of the request
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", errors.New("missing required 'file' form field")
		}
		return nil, "", fmt.Errorf("invalid upload: %v", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Debug(err)
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("invalid upload: %v", err)
	}
	return data, header.Filename, nil
}

// storageKey sanitizes name. Names that sanitize to nothing get a generated
// key keeping the extension of filename.
func storageKey(name, filename string) string {
	if key := audiostash.SanitizeKey(name); key != "" {
		return key
	}
	ext := path.Ext(audiostash.SanitizeKey(path.Base(filename)))
	return "upload_" + uuid.NewString() + ext
}

// uploadGroupKey identifies an upload by its object key and content
func uploadGroupKey(key string, data []byte) string {
	sum := sha256.Sum256(data)
	return key + ":" + hex.EncodeToString(sum[:])
}

func removeAll(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		log.Warnf("Could not remove %s: %v", dir, err)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set(contentTypeHeader, "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		audiostash.ErrorsTotalMetric.Inc()
		log.Errorf("Failed to write JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
