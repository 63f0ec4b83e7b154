package audiostash

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// AudioSegment is a diarized piece of an audio file
type AudioSegment struct {
	FilePath   string  `json:"file_path"`
	SpeakerID  string  `json:"speaker_id"`
	Start      float64 `json:"start_time"`
	End        float64 `json:"end_time"`
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

// Result holds everything a pipeline run produced
type Result struct {
	OriginalFile   string             `json:"original_file"`
	Segments       []AudioSegment     `json:"segments"`
	FullTranscript string             `json:"full_transcript"`
	OriginalURL    string             `json:"original_url,omitempty"`
	SegmentURLs    []string           `json:"segment_urls"`
	Records        []TranscriptRecord `json:"records,omitempty"`
	ProcessingTime time.Duration      `json:"processing_time"`
}

// Pipeline runs diarization, transcription and upload of an audio file
type Pipeline struct {
	Diarizer    *Diarizer
	Transcriber Transcriber
	Storage     *StorageStage
}

// NewPipeline creates a pipeline. A nil uploader simulates the uploads.
func NewPipeline(config PipelineConfig, uploader FileUploader) *Pipeline {
	p := &Pipeline{
		Diarizer: NewDiarizer(config.SegmentSeconds, config.WorkDir),
		Storage:  &StorageStage{},
	}
	if u, ok := uploader.(*Uploader); ok && u == nil {
		uploader = nil
	}
	p.Storage.Uploader = uploader
	return p
}

// Process runs audioFile through every stage. Segment files are removed
// once the run is over.
func (p *Pipeline) Process(ctx context.Context, audioFile string) (*Result, error) {
	started := time.Now()
	log.Infof("Starting pipeline processing for: %s", audioFile)

	if !FileExists(audioFile) {
		return nil, fmt.Errorf("audio file not found: %s", audioFile)
	}

	segments, err := p.Diarizer.Process(ctx, audioFile)
	defer p.cleanup(segments)
	if err != nil {
		return nil, fmt.Errorf("diarization failed: %w", err)
	}

	segments = p.Transcriber.Process(segments)

	stored, err := p.Storage.Process(ctx, segments, audioFile)
	if err != nil {
		ErrorsTotalMetric.Inc()
		return nil, fmt.Errorf("storage failed: %w", err)
	}

	result := &Result{
		OriginalFile:   audioFile,
		Segments:       segments,
		FullTranscript: FullTranscript(segments),
		OriginalURL:    stored.OriginalURL,
		SegmentURLs:    stored.SegmentURLs,
		Records:        stored.Records,
		ProcessingTime: time.Since(started),
	}

	log.Infof("Pipeline completed in %.2f seconds", result.ProcessingTime.Seconds())
	return result, nil
}

// Search returns the segments of the result whose transcript contains query
func (r *Result) Search(query string) []AudioSegment {
	return Search(query, r.Segments)
}

// Search returns the segments whose transcript contains query, ignoring case
func Search(query string, segments []AudioSegment) []AudioSegment {
	log.Infof("Searching for: '%s'", query)
	needle := strings.ToLower(query)

	var matches []AudioSegment
	for _, segment := range segments {
		if strings.Contains(strings.ToLower(segment.Transcript), needle) {
			matches = append(matches, segment)
		}
	}

	log.Infof("Found %d matching segments", len(matches))
	return matches
}

// FullTranscript renders one "[start - end] speaker: text" line per segment
func FullTranscript(segments []AudioSegment) string {
	lines := make([]string, 0, len(segments))
	for _, segment := range segments {
		lines = append(lines, fmt.Sprintf("[%.1fs - %.1fs] %s: %s", segment.Start, segment.End, segment.SpeakerID, segment.Transcript))
	}
	return strings.Join(lines, "\n")
}

// cleanup removes segment files written into the work directory
func (p *Pipeline) cleanup(segments []AudioSegment) {
	workDir := filepath.Clean(p.Diarizer.WorkDir) + string(filepath.Separator)
	for _, segment := range segments {
		if !strings.HasPrefix(filepath.Clean(segment.FilePath), workDir) {
			continue
		}
		if err := os.Remove(segment.FilePath); err != nil && !os.IsNotExist(err) {
			log.Warnf("Could not clean up %s: %v", segment.FilePath, err)
			continue
		}
		log.Debugf("Cleaned up: %s", segment.FilePath)
	}
}
