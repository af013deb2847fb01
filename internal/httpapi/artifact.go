package httpapi

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
)

// artifactCache keeps the raw knowledge-base file and rereads it only when
// its modification time or size changes.
type artifactCache struct {
	path string

	mu      sync.Mutex
	data    []byte
	modTime time.Time
	size    int64
}

func (a *artifactCache) load() ([]byte, error) {
	info, err := os.Stat(a.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("knowledge base %s: %w", a.path, internalerr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.data != nil && info.ModTime().Equal(a.modTime) && info.Size() == a.size {
		return a.data, nil
	}

	data, err := os.ReadFile(a.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("knowledge base %s: %w", a.path, internalerr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !sonic.Valid(data) {
		return nil, fmt.Errorf("knowledge base %s is not valid JSON", a.path)
	}
	a.data, a.modTime, a.size = data, info.ModTime(), info.Size()
	return data, nil
}
