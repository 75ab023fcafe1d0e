package remote

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/studio1767/filerelay/internal/secrets"
)

// Entry is a snapshot of one remote file taken at list time.
type Entry struct {
	Name    string
	ModTime time.Time
	Size    int64
	HasSize bool
}

// Endpoint describes where a store lives. Directory is the remote directory
// that is listed and that relative names are resolved against.
type Endpoint struct {
	Protocol              string        `yaml:"protocol"`
	Host                  string        `yaml:"host"`
	Port                  int           `yaml:"port"`
	Directory             string        `yaml:"directory"`
	Bucket                string        `yaml:"bucket"`
	Region                string        `yaml:"region"`
	KnownHosts            string        `yaml:"known_hosts"`
	InsecureIgnoreHostKey bool          `yaml:"insecure_ignore_host_key"`
	Timeout               time.Duration `yaml:"timeout"`
}

// Address is host:port with the protocol default port filled in.
func (ep Endpoint) Address() string {
	port := ep.Port
	if port == 0 {
		port = DefaultPort(ep.Protocol)
	}
	return fmt.Sprintf("%s:%d", ep.Host, port)
}

// Store opens sessions against a remote file endpoint.
type Store interface {
	Connect(ctx context.Context, ep Endpoint, creds secrets.Credentials) (Session, error)
}

// Session is an open connection to a store. Callers must Close it on every
// exit path.
type Session interface {
	// List returns the regular files in the endpoint directory.
	List(ctx context.Context) ([]Entry, error)

	// Fetch copies the named file into localPath. The data is written to a
	// temporary sibling and renamed into place only once complete.
	Fetch(ctx context.Context, name, localPath string) error

	// Put copies localPath to remotePath on the store.
	Put(ctx context.Context, localPath, remotePath string) error

	Close() error
}

var stores = map[string]Store{
	"sftp":    &SFTPStore{},
	"ftp":     &FTPStore{},
	"ftps":    &FTPStore{},
	"webdav":  &WebDAVStore{},
	"webdavs": &WebDAVStore{},
	"s3":      &S3Store{},
	"file":    &LocalStore{},
}

var defaultPorts = map[string]int{
	"sftp":    22,
	"ftp":     21,
	"ftps":    21,
	"webdav":  80,
	"webdavs": 443,
}

func DefaultPort(protocol string) int {
	return defaultPorts[protocol]
}

// ForProtocol returns the store registered for the protocol name.
func ForProtocol(protocol string) (Store, error) {
	store, ok := stores[protocol]
	if !ok {
		return nil, &ErrUnknownProtocol{protocol: protocol}
	}
	return store, nil
}

// Protocols lists the registered protocol names.
func Protocols() []string {
	var names []string
	for name := range stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
