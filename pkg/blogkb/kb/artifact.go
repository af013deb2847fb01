package kb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
)

// Encode renders the artifact as indented JSON with sorted map keys.
func Encode(kb *KnowledgeBase) ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(kb, "", "  ")
}

// Decode parses an artifact.
func Decode(data []byte) (*KnowledgeBase, error) {
	var kb KnowledgeBase
	if err := sonic.ConfigStd.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("decode knowledge base: %w", err)
	}
	return &kb, nil
}

// WriteArtifact replaces the file at path with the encoded artifact. The data
// is written to a temporary file in the same directory and renamed into
// place, so a failed write leaves the previous artifact intact. It returns
// the number of bytes written.
func WriteArtifact(path string, kb *KnowledgeBase) (int, error) {
	data, err := Encode(kb)
	if err != nil {
		return 0, fmt.Errorf("%w: encode: %v", internalerr.ErrArtifactWrite, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("%w: %v", internalerr.ErrArtifactWrite, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", internalerr.ErrArtifactWrite, err)
	}
	tmpName := tmp.Name()
	cleanup := func(cause error) (int, error) {
		tmp.Close()
		os.Remove(tmpName)
		return 0, fmt.Errorf("%w: %v", internalerr.ErrArtifactWrite, cause)
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("%w: %v", internalerr.ErrArtifactWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("%w: %v", internalerr.ErrArtifactWrite, err)
	}
	return len(data), nil
}

// ReadArtifact loads an artifact from disk. A missing file is reported as
// internalerr.ErrNotFound.
func ReadArtifact(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("knowledge base %s: %w", path, internalerr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
