package remote

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/studio1767/filerelay/internal/secrets"
)

// MemoryStore keeps files in memory, keyed by cleaned slash path. Failures
// can be injected per operation, which makes it the store of choice for
// exercising the orchestrator without network servers.
type MemoryStore struct {
	mu    sync.Mutex
	files map[string]memFile

	// ConnectErr and ListErr fail every Connect and List call when set.
	ConnectErr error
	ListErr    error

	// FetchErrs and PutErrs fail the fetch or put of a base name.
	FetchErrs map[string]error
	PutErrs   map[string]error

	puts     []string
	fetches  []string
	connects int
	open     int
}

type memFile struct {
	data    []byte
	modTime time.Time
}

type memSession struct {
	store  *MemoryStore
	dir    string
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files:     make(map[string]memFile),
		FetchErrs: make(map[string]error),
		PutErrs:   make(map[string]error),
	}
}

// AddFile places a file in the store, replacing any previous content.
func (m *MemoryStore) AddFile(fpath string, data []byte, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[path.Clean(fpath)] = memFile{
		data:    append([]byte(nil), data...),
		modTime: modTime,
	}
}

func (m *MemoryStore) File(fpath string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[path.Clean(fpath)]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), f.data...), true
}

// Puts returns the remote paths written, in order, including repeats.
func (m *MemoryStore) Puts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.puts...)
}

func (m *MemoryStore) Fetches() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetches...)
}

func (m *MemoryStore) Connects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connects
}

// OpenSessions is the number of sessions connected but not yet closed.
func (m *MemoryStore) OpenSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *MemoryStore) Connect(ctx context.Context, ep Endpoint, creds secrets.Credentials) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connects++
	if m.ConnectErr != nil {
		return nil, &ConnectionError{Address: ep.Address(), Err: m.ConnectErr}
	}
	m.open++

	dir := ep.Directory
	if dir == "" {
		dir = "/"
	}
	return &memSession{store: m, dir: path.Clean(dir)}, nil
}

func (s *memSession) List(ctx context.Context) ([]Entry, error) {
	m := s.store
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.closed {
		return nil, &ListError{Directory: s.dir, Err: os.ErrClosed}
	}
	if m.ListErr != nil {
		return nil, &ListError{Directory: s.dir, Err: m.ListErr}
	}

	var entries []Entry
	for fpath, f := range m.files {
		if path.Dir(fpath) != s.dir {
			continue
		}
		entries = append(entries, Entry{
			Name:    path.Base(fpath),
			ModTime: f.modTime,
			Size:    int64(len(f.data)),
			HasSize: true,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func (s *memSession) Fetch(ctx context.Context, name, localPath string) error {
	m := s.store
	rpath := path.Join(s.dir, name)

	m.mu.Lock()
	m.fetches = append(m.fetches, rpath)
	f, ok := m.files[rpath]
	ferr := m.FetchErrs[name]
	closed := s.closed
	m.mu.Unlock()

	switch {
	case closed:
		return &TransferError{Op: "fetch", Path: rpath, Err: os.ErrClosed}
	case ferr != nil:
		return &TransferError{Op: "fetch", Path: rpath, Err: ferr}
	case !ok:
		return &TransferError{Op: "fetch", Path: rpath, Err: os.ErrNotExist}
	}

	if _, err := saveFile(localPath, bytes.NewReader(f.data), int64(len(f.data))); err != nil {
		return &TransferError{Op: "fetch", Path: rpath, Err: err}
	}
	return nil
}

func (s *memSession) Put(ctx context.Context, localPath, remotePath string) error {
	m := s.store
	rpath := path.Clean(remotePath)

	data, err := os.ReadFile(localPath)
	if err != nil {
		return &TransferError{Op: "put", Path: rpath, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s.closed {
		return &TransferError{Op: "put", Path: rpath, Err: os.ErrClosed}
	}
	if perr := m.PutErrs[path.Base(rpath)]; perr != nil {
		return &TransferError{Op: "put", Path: rpath, Err: perr}
	}

	m.puts = append(m.puts, rpath)
	m.files[rpath] = memFile{data: data, modTime: time.Now()}
	return nil
}

func (s *memSession) Close() error {
	m := s.store
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.closed {
		return errors.New("session already closed")
	}
	s.closed = true
	m.open--
	return nil
}
