package remote

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/studio-b12/gowebdav"

	"github.com/studio1767/filerelay/internal/secrets"
)

// WebDAVStore talks http, or https when the protocol is "webdavs".
type WebDAVStore struct{}

type webdavSession struct {
	client *gowebdav.Client
	dir    string
}

func (w *WebDAVStore) Connect(ctx context.Context, ep Endpoint, creds secrets.Credentials) (Session, error) {
	scheme := "http"
	if ep.Protocol == "webdavs" {
		scheme = "https"
	}
	root := fmt.Sprintf("%s://%s", scheme, ep.Address())

	c := gowebdav.NewClient(root, creds.Username, creds.Password)
	if ep.Timeout > 0 {
		c.SetTimeout(ep.Timeout)
	}
	if err := c.Connect(); err != nil {
		return nil, &ConnectionError{Address: root, Err: err}
	}

	dir := ep.Directory
	if dir == "" {
		dir = "/"
	}

	return &webdavSession{client: c, dir: dir}, nil
}

func (w *webdavSession) List(ctx context.Context) ([]Entry, error) {
	infos, err := w.client.ReadDir(w.dir)
	if err != nil {
		return nil, &ListError{Directory: w.dir, Err: err}
	}

	var entries []Entry
	for _, info := range infos {
		if info.IsDir() {
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

func (w *webdavSession) Fetch(ctx context.Context, name, localPath string) error {
	rpath := path.Join(w.dir, name)

	stream, err := w.client.ReadStream(rpath)
	if err != nil {
		return &TransferError{Op: "fetch", Path: rpath, Err: err}
	}
	defer stream.Close()

	if _, err := saveFile(localPath, stream, -1); err != nil {
		return &TransferError{Op: "fetch", Path: rpath, Err: err}
	}
	return nil
}

func (w *webdavSession) Put(ctx context.Context, localPath, remotePath string) error {
	in, err := os.Open(localPath)
	if err != nil {
		return &TransferError{Op: "put", Path: remotePath, Err: err}
	}
	defer in.Close()

	if err := w.client.WriteStream(remotePath, in, 0644); err != nil {
		return &TransferError{Op: "put", Path: remotePath, Err: err}
	}
	return nil
}

func (w *webdavSession) Close() error {
	return nil
}
