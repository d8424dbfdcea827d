package downstream

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chat-relay/logging"

	"github.com/google/uuid"
)

// StreamRecorder keeps a copy of relayed stream bytes on disk. Write never
// fails so a full disk cannot break the caller's stream.
type StreamRecorder struct {
	file   *os.File
	failed bool
}

func NewStreamRecorder(logDir string) (*StreamRecorder, error) {
	if logDir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("sse_%s_%s.log", timestamp, uuid.NewString()[:8])
	filePath := filepath.Join(logDir, filename)

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	return &StreamRecorder{
		file: file,
	}, nil
}

func (s *StreamRecorder) Write(p []byte) (int, error) {
	if s == nil || s.file == nil || s.failed {
		return len(p), nil
	}
	if _, err := s.file.Write(p); err != nil {
		logging.ErrorMsg("Failed to record stream to %s: %v", s.file.Name(), err)
		s.failed = true
	}
	return len(p), nil
}

func (s *StreamRecorder) Path() string {
	if s == nil || s.file == nil {
		return ""
	}
	return s.file.Name()
}

func (s *StreamRecorder) Close() {
	if s == nil || s.file == nil {
		return
	}
	s.file.Close()
}
