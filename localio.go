package audiostash

import (
	"io"
	"net/http"
	"os"

	log "github.com/sirupsen/logrus"
)

const contentTypeHeader = "Content-Type"

// CloseResponse closes the body of a response, if there is one
func CloseResponse(resp *http.Response) {
	if resp != nil {
		err := resp.Body.Close()
		if err != nil {
			log.Debug(err)
		}
	}
}

// closeWithLog closes an io.Closer and logs any error with the given context
func closeWithLog(c io.Closer, context string) {
	if err := c.Close(); err != nil {
		log.Warnf("Error closing %s: %v", context, err)
	}
}

// FileExists reports whether path exists and is a regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// GetFileSize returns the size of the file at path, or 0 when it can't be read
func GetFileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
