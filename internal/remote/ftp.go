package remote

import (
	"context"
	"crypto/tls"
	"os"
	"path"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/studio1767/filerelay/internal/secrets"
)

// FTPStore speaks plain FTP, or explicit TLS when the protocol is "ftps".
type FTPStore struct{}

type ftpSession struct {
	client *ftp.ServerConn
	dir    string
}

func (f *FTPStore) Connect(ctx context.Context, ep Endpoint, creds secrets.Credentials) (Session, error) {
	addr := ep.Address()

	opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
	if ep.Timeout > 0 {
		opts = append(opts, ftp.DialWithTimeout(ep.Timeout))
	}
	if ep.Protocol == "ftps" {
		opts = append(opts, ftp.DialWithExplicitTLS(&tls.Config{ServerName: ep.Host}))
	}

	c, err := ftp.Dial(addr, opts...)
	if err != nil {
		return nil, &ConnectionError{Address: addr, Err: err}
	}

	err = c.Login(creds.Username, creds.Password)
	if err != nil {
		c.Quit() // Close connection on login failure
		return nil, &ConnectionError{Address: addr, Err: err}
	}

	dir := ep.Directory
	if dir == "" {
		dir = "."
	}

	return &ftpSession{client: c, dir: dir}, nil
}

func (f *ftpSession) List(ctx context.Context) ([]Entry, error) {
	list, err := f.client.List(f.dir)
	if err != nil {
		return nil, &ListError{Directory: f.dir, Err: err}
	}

	var entries []Entry
	for _, e := range list {
		if e.Type != ftp.EntryTypeFile {
			continue
		}
		entries = append(entries, Entry{
			Name:    e.Name,
			ModTime: e.Time,
			Size:    int64(e.Size),
			HasSize: true,
		})
	}
	return entries, nil
}

func (f *ftpSession) Fetch(ctx context.Context, name, localPath string) error {
	rpath := path.Join(f.dir, name)

	var err error
	for attempts := 0; attempts < 3; attempts++ {
		err = f.fetchOnce(rpath, localPath)
		if err == nil {
			return nil
		}
		if attempts == 2 {
			break
		}
		select {
		case <-ctx.Done():
			return &TransferError{Op: "fetch", Path: rpath, Err: ctx.Err()}
		case <-time.After(time.Second * time.Duration(attempts+1)):
		}
	}
	return &TransferError{Op: "fetch", Path: rpath, Err: err}
}

func (f *ftpSession) fetchOnce(rpath, localPath string) error {
	r, err := f.client.Retr(rpath)
	if err != nil {
		return err
	}
	defer r.Close()

	_, err = saveFile(localPath, r, -1)
	return err
}

func (f *ftpSession) Put(ctx context.Context, localPath, remotePath string) error {
	in, err := os.Open(localPath)
	if err != nil {
		return &TransferError{Op: "put", Path: remotePath, Err: err}
	}
	defer in.Close()

	if err := f.client.Stor(remotePath, in); err != nil {
		return &TransferError{Op: "put", Path: remotePath, Err: err}
	}
	return nil
}

func (f *ftpSession) Close() error {
	return f.client.Quit()
}
