package audiostash

import log "github.com/sirupsen/logrus"

// transcriptConfidence is reported for every canned transcript
const transcriptConfidence = 0.95

var cannedPhrases = []string{
	"Xin chào, tôi là người học tiếng Việt.",
	"Hôm nay là một ngày đẹp trời.",
	"Tôi thích học tiếng Việt rất nhiều.",
	"Cảm ơn bạn đã nghe tôi nói.",
	"Chúc bạn có một ngày tốt lành.",
}

// Transcriber fills segments with canned Vietnamese transcripts. It stands
// in for a real speech recognition model.
type Transcriber struct{}

// Process sets Transcript and Confidence on every segment
func (Transcriber) Process(segments []AudioSegment) []AudioSegment {
	log.Infof("Processing %d segments for Vietnamese ASR", len(segments))

	for i := range segments {
		segments[i].Transcript = cannedPhrases[i%len(cannedPhrases)]
		segments[i].Confidence = transcriptConfidence
		log.Infof("Segment %d (%s): %s", i+1, segments[i].SpeakerID, segments[i].Transcript)
	}

	log.Info("Vietnamese ASR processing completed")
	return segments
}
