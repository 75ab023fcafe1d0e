package remote

import (
	"context"
	"os"
	"path/filepath"

	"github.com/studio1767/filerelay/internal/secrets"
)

// LocalStore serves a directory on the local filesystem. Remote paths are
// taken relative to the filesystem root.
type LocalStore struct{}

type localSession struct {
	dir string
}

func (l *LocalStore) Connect(ctx context.Context, ep Endpoint, creds secrets.Credentials) (Session, error) {
	fi, err := os.Stat(ep.Directory)
	if err != nil {
		return nil, &ConnectionError{Address: ep.Directory, Err: err}
	}
	if !fi.IsDir() {
		return nil, &ConnectionError{Address: ep.Directory, Err: os.ErrInvalid}
	}
	return &localSession{dir: ep.Directory}, nil
}

func (l *localSession) List(ctx context.Context) ([]Entry, error) {
	dirents, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, &ListError{Directory: l.dir, Err: err}
	}

	var entries []Entry
	for _, dirent := range dirents {
		if !dirent.Type().IsRegular() {
			continue
		}
		info, err := dirent.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:    info.Name(),
			ModTime: info.ModTime(),
			Size:    info.Size(),
			HasSize: true,
		})
	}
	return entries, nil
}

func (l *localSession) Fetch(ctx context.Context, name, localPath string) error {
	return copyFile(filepath.Join(l.dir, name), localPath, "fetch")
}

func (l *localSession) Put(ctx context.Context, localPath, remotePath string) error {
	return copyFile(localPath, filepath.FromSlash(remotePath), "put")
}

func (l *localSession) Close() error {
	return nil
}

func copyFile(src, dst, op string) error {
	in, err := os.Open(src)
	if err != nil {
		return &TransferError{Op: op, Path: src, Err: err}
	}
	defer in.Close()

	var expected int64 = -1
	if info, err := in.Stat(); err == nil {
		expected = info.Size()
	}

	if _, err := saveFile(dst, in, expected); err != nil {
		return &TransferError{Op: op, Path: src, Err: err}
	}
	return nil
}
