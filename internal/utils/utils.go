package utils

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

var Log = log.New()

func SetLogLevel(level string) {
	// trace and panic are never used
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(log.DebugLevel)
	case "info":
		Log.SetLevel(log.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(log.WarnLevel)
	case "error":
		Log.SetLevel(log.ErrorLevel)
	case "fatal":
		Log.SetLevel(log.FatalLevel)
	default:
		log.Fatal("Bad error level string")
	}
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// FirstExisting returns the first of the candidate paths that exists.
func FirstExisting(candidates ...string) (string, error) {
	for _, c := range candidates {
		if FileExists(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("none of %s exists", strings.Join(candidates, ", "))
}
