package hashmarker

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/provenance-io/p8e-publisher/interfaces"
	"github.com/provenance-io/p8e-publisher/objectstore"
)

// FileName is the marker file written into each configured directory.
const FileName = "p8e-hash.json"

// Marker records which build of an artifact was published.
type Marker struct {
	Package   string    `json:"package"`
	UUID      string    `json:"uuid"`
	Timestamp time.Time `json:"timestamp"`
	Hash      string    `json:"hash"`
	Classes   []string  `json:"classes"`
}

// ForArtifact builds the marker of artifact. Hash is the base64 content hash
// the artifact was published under.
func ForArtifact(pkg string, artifact interfaces.Artifact, now time.Time) (Marker, error) {
	hash, err := objectstore.ContentHash(artifact.Data)
	if err != nil {
		return Marker{}, err
	}

	classes := make([]string, 0, len(artifact.Classes))
	for _, class := range artifact.Classes {
		classes = append(classes, class.Name)
	}

	return Marker{
		Package:   pkg,
		UUID:      uuid.NewString(),
		Timestamp: now.UTC(),
		Hash:      base64.StdEncoding.EncodeToString(hash),
		Classes:   classes,
	}, nil
}

// Path returns the marker path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Write stores m in dir, creating dir if needed. The file is replaced atomically.
func Write(dir string, m Marker) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating marker directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".p8e-hash-*")
	if err != nil {
		return "", fmt.Errorf("creating marker: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing marker: %w", err)
	}

	path := Path(dir)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("writing marker: %w", err)
	}
	return path, nil
}

// Read loads the marker in dir.
func Read(dir string) (*Marker, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		return nil, err
	}
	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", Path(dir), err)
	}
	return &m, nil
}

// Clean removes the marker in dir. A missing marker is not an error.
func Clean(dir string) error {
	err := os.Remove(Path(dir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
