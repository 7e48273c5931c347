package logger

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// secretRe matches credential-bearing query parameters so they never reach a
// log sink in clear text.
var secretRe = regexp.MustCompile(`(?i)(passkey|api_key|client_secret)=[^&\s"]+`)

// MaskSecrets replaces credential values in s with asterisks.
func MaskSecrets(s string) string {
	return secretRe.ReplaceAllString(s, "$1=********")
}

// maskWriter rewrites every outgoing log line through MaskSecrets. Masking at
// the writer level covers all records, not just the ones a call site
// remembered to sanitize.
type maskWriter struct {
	w io.Writer
}

func (m maskWriter) Write(p []byte) (int, error) {
	masked := MaskSecrets(string(p))
	if _, err := m.w.Write([]byte(masked)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Setup installs the default slog logger, writing to stderr and to a
// size-rotated log file.
func Setup(logFile string, maxSizeMB int, debug bool) {
	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    maxSizeMB,
		MaxBackups: 1,
		Compress:   false,
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	writer := maskWriter{w: io.MultiWriter(os.Stderr, rotator)}
	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// Tail returns up to limit lines from the end of the log file, most recent
// first. A missing file yields an empty slice.
func Tail(logFile string, limit int) ([]string, error) {
	data, err := os.ReadFile(logFile)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}

	// Most recent first
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}

	return lines, nil
}
