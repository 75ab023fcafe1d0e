package remote

import (
	"context"
	"net"
	"os"
	"os/user"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/studio1767/filerelay/internal/secrets"
)

type SFTPStore struct{}

type sftpSession struct {
	ssh    *ssh.Client
	client *sftp.Client
	dir    string
}

func (s *SFTPStore) Connect(ctx context.Context, ep Endpoint, creds secrets.Credentials) (Session, error) {
	addr := ep.Address()

	config, err := sshConfig(ep, creds)
	if err != nil {
		return nil, &ConnectionError{Address: addr, Err: err}
	}

	dialer := net.Dialer{Timeout: ep.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnectionError{Address: addr, Err: err}
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, &ConnectionError{Address: addr, Err: err}
	}
	sshClient := ssh.NewClient(c, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, &ConnectionError{Address: addr, Err: errors.Wrap(err, "starting sftp subsystem")}
	}

	dir := ep.Directory
	if dir == "" {
		dir = "."
	}

	return &sftpSession{
		ssh:    sshClient,
		client: client,
		dir:    dir,
	}, nil
}

func sshConfig(ep Endpoint, creds secrets.Credentials) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod

	if creds.PrivateKey != "" {
		var signer ssh.Signer
		var err error
		if creds.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase([]byte(creds.PrivateKey), []byte(creds.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey([]byte(creds.PrivateKey))
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse private key")
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if creds.Password != "" {
		auth = append(auth, ssh.Password(creds.Password))
	}

	hostKeyCallback, err := hostKeyCallback(ep)
	if err != nil {
		return nil, err
	}

	return &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         ep.Timeout,
	}, nil
}

func hostKeyCallback(ep Endpoint) (ssh.HostKeyCallback, error) {
	if ep.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	known := ep.KnownHosts
	if known == "" {
		u, err := user.Current()
		if err != nil {
			return nil, err
		}
		known = filepath.Join(u.HomeDir, ".ssh", "known_hosts")
	}

	callback, err := knownhosts.New(known)
	if err != nil {
		return nil, errors.Wrapf(err, "loading known hosts from %s", known)
	}
	return callback, nil
}

func (s *sftpSession) List(ctx context.Context) ([]Entry, error) {
	infos, err := s.client.ReadDir(s.dir)
	if err != nil {
		return nil, &ListError{Directory: s.dir, Err: err}
	}

	var entries []Entry
	for _, info := range infos {
		if !info.Mode().IsRegular() {
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

func (s *sftpSession) Fetch(ctx context.Context, name, localPath string) error {
	rpath := path.Join(s.dir, name)

	in, err := s.client.Open(rpath)
	if err != nil {
		return &TransferError{Op: "fetch", Path: rpath, Err: err}
	}
	defer in.Close()

	var expected int64 = -1
	if info, err := in.Stat(); err == nil {
		expected = info.Size()
	}

	if _, err := saveFile(localPath, in, expected); err != nil {
		return &TransferError{Op: "fetch", Path: rpath, Err: err}
	}
	return nil
}

func (s *sftpSession) Put(ctx context.Context, localPath, remotePath string) error {
	in, err := os.Open(localPath)
	if err != nil {
		return &TransferError{Op: "put", Path: remotePath, Err: err}
	}
	defer in.Close()

	out, err := s.client.Create(remotePath)
	if err != nil {
		return &TransferError{Op: "put", Path: remotePath, Err: err}
	}

	_, err = out.ReadFrom(in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &TransferError{Op: "put", Path: remotePath, Err: err}
	}
	return nil
}

func (s *sftpSession) Close() error {
	err := s.client.Close()
	if serr := s.ssh.Close(); err == nil {
		err = serr
	}
	return err
}
