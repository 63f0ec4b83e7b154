package audiostash

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Outcome markers recorded in place of a URL when an upload didn't happen
const (
	OutcomeFailed   = "failed"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
)

const timestampLayout = "20060102_150405"

// FileUploader is what the storage stage needs from an uploader
type FileUploader interface {
	EnsureBucket(ctx context.Context) error
	UploadFile(ctx context.Context, localPath, name string) (string, error)
}

// TranscriptRecord is the metadata kept for every uploaded segment
type TranscriptRecord struct {
	FileURL    string    `json:"file_url"`
	Speaker    string    `json:"speaker"`
	Start      float64   `json:"start_time"`
	End        float64   `json:"end_time"`
	Transcript string    `json:"transcript"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// StorageOutput is what the storage stage produced
type StorageOutput struct {
	OriginalURL string
	SegmentURLs []string
	Records     []TranscriptRecord
}

// StorageStage uploads the original file and its segments. Without an
// uploader it only simulates the uploads.
type StorageStage struct {
	Uploader FileUploader
	Now      func() time.Time
}

// IsUploaded reports whether an entry of SegmentURLs is a real URL
func IsUploaded(url string) bool {
	switch url {
	case "", OutcomeFailed, OutcomeError, OutcomeNotFound:
		return false
	}
	return true
}

// Process uploads original and every segment. Segment keys are laid out as
// <stem>_<timestamp>/segments/segment_<index>_<start>s_<speaker>.wav and
// sanitized by the uploader.
func (s *StorageStage) Process(ctx context.Context, segments []AudioSegment, original string) (*StorageOutput, error) {
	log.Infof("Uploading %d segments to storage", len(segments))
	output := &StorageOutput{SegmentURLs: make([]string, 0, len(segments))}

	if s.Uploader == nil {
		log.Warn("No storage credentials, simulating upload")
		for _, segment := range segments {
			output.SegmentURLs = append(output.SegmentURLs, "mock://uploaded/"+filepath.Base(segment.FilePath))
		}
		return output, nil
	}

	if err := s.Uploader.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("cannot connect to storage: %w", err)
	}

	timestamp := s.now().Format(timestampLayout)
	base := filepath.Base(original)

	originalURL, err := s.Uploader.UploadFile(ctx, original, fmt.Sprintf("original_%s_%s", timestamp, base))
	if err != nil {
		log.Errorf("Failed to upload original file: %v", err)
		originalURL = OutcomeFailed
	} else {
		log.Infof("Original file uploaded: %s", originalURL)
	}
	output.OriginalURL = originalURL

	folder := fmt.Sprintf("%s_%s/segments", strings.TrimSuffix(base, filepath.Ext(base)), timestamp)
	for i, segment := range segments {
		if !FileExists(segment.FilePath) {
			log.Warnf("Segment file not found: %s", segment.FilePath)
			output.SegmentURLs = append(output.SegmentURLs, OutcomeNotFound)
			continue
		}

		name := fmt.Sprintf("%s/segment_%03d_%05.1fs_%s.wav", folder, i, segment.Start, segment.SpeakerID)
		publicURL, err := s.Uploader.UploadFile(ctx, segment.FilePath, name)
		if err != nil {
			log.Errorf("Error uploading segment %d: %v", i+1, err)
			output.SegmentURLs = append(output.SegmentURLs, OutcomeError)
			continue
		}
		log.Infof("Segment %d uploaded: %s", i+1, name)
		output.SegmentURLs = append(output.SegmentURLs, publicURL)
	}

	output.Records = s.transcriptRecords(segments, output.SegmentURLs)

	uploaded := 0
	for _, u := range output.SegmentURLs {
		if IsUploaded(u) {
			uploaded++
		}
	}
	log.Infof("Successfully uploaded %d/%d segments", uploaded, len(output.SegmentURLs))
	return output, nil
}

func (s *StorageStage) transcriptRecords(segments []AudioSegment, urls []string) []TranscriptRecord {
	records := make([]TranscriptRecord, 0, len(segments))
	for i, segment := range segments {
		if i >= len(urls) || !IsUploaded(urls[i]) {
			continue
		}
		records = append(records, TranscriptRecord{
			FileURL:    urls[i],
			Speaker:    segment.SpeakerID,
			Start:      segment.Start,
			End:        segment.End,
			Transcript: segment.Transcript,
			Confidence: segment.Confidence,
			CreatedAt:  s.now(),
		})
		log.WithFields(log.Fields{"speaker": segment.SpeakerID, "url": urls[i]}).Infof("Metadata: %s", segment.Transcript)
	}
	return records
}

func (s *StorageStage) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
