package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"conclave/pkg/config"
	"conclave/pkg/debate"
)

// WriteSessionLog writes the session document to a timestamped JSON file in
// dir, creating the directory as needed, and returns the file path.
func WriteSessionLog(dir string, cfg config.RunConfig, session *debate.Session, answer string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	now := time.Now()
	payload, err := MarshalSessionJSON(cfg, session, answer, now)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("debate_%s.json", now.Format("20060102_150405")))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("failed to write session log: %w", err)
	}
	return path, nil
}
