package audiostash

import "strings"

var logValueReplacer = strings.NewReplacer("\n", "", "\r", "")

// LogSafe strips line breaks from user supplied text before it is logged
func LogSafe(s string) string {
	return logValueReplacer.Replace(s)
}
