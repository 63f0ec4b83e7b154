package audiostash

// SanitizeRequest is the body of a sanitize call
type SanitizeRequest struct {
	Path string `json:"path"`
}

// SanitizeResponse is response format when calling sanitize
type SanitizeResponse struct {
	Path string `json:"path"`
	Key  string `json:"key"`
	Safe bool   `json:"safe"`
}

// UploadResponse is response format when calling upload
type UploadResponse struct {
	Key    string `json:"key,omitempty"`
	URL    string `json:"url,omitempty"`
	Size   int64  `json:"size,omitempty"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// JobResponse is response format when starting or polling a pipeline job
type JobResponse struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Error  string  `json:"error,omitempty"`
	Result *Result `json:"result,omitempty"`
}

// SearchResponse is response format when searching a job's transcripts
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []AudioSegment `json:"results"`
}
