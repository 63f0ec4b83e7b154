package audiostash

import (
	"path"
	"strings"
)

// DefaultContentType is used for extensions missing from the audio table.
const DefaultContentType = "audio/mpeg"

var audioContentTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
}

// ContentTypeFor infers the MIME type of an audio object from its extension
func ContentTypeFor(name string) string {
	if contentType, ok := audioContentTypes[strings.ToLower(path.Ext(name))]; ok {
		return contentType
	}
	return DefaultContentType
}
