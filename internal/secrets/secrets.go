package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Credentials are the login details for a single remote endpoint. Username
// and Password double as the access key id and secret key for S3.
type Credentials struct {
	Username   string
	Password   string
	PrivateKey string
	Passphrase string
}

// Provider resolves a credential reference from the configuration into
// usable credentials.
type Provider interface {
	Credential(id string) (Credentials, error)
}

type ErrNoSuchSecret struct {
	id string
}

func (e *ErrNoSuchSecret) Error() string {
	return fmt.Sprintf("no credential found for '%s'", e.id)
}

type ErrPermissionsTooOpen struct {
	msg string
}

func (e *ErrPermissionsTooOpen) Error() string {
	return e.msg
}

// FileProvider serves credentials from a yaml file. The file must not be
// readable by group or other.
type FileProvider struct {
	entries map[string]Credentials
}

func LoadFile(secrets_file string) (*FileProvider, error) {
	// check the file permissions
	info, err := os.Stat(secrets_file)
	if err != nil {
		return nil, err
	}
	perms := info.Mode()
	if perms&0077 != 0 {
		return nil, &ErrPermissionsTooOpen{
			msg: fmt.Sprintf("Permissions on secrets file are too open: %#o", perms.Perm()),
		}
	}

	data, err := os.ReadFile(secrets_file)
	if err != nil {
		return nil, err
	}

	type Data struct {
		Id             string
		Username       string
		Password       string
		PrivateKey     string `yaml:"private_key"`
		PrivateKeyFile string `yaml:"private_key_file"`
		Passphrase     string
	}
	var raw []Data

	err = yaml.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", secrets_file, err)
	}

	entries := make(map[string]Credentials)
	for _, entry := range raw {
		if entry.Id == "" {
			continue
		}
		creds := Credentials{
			Username:   entry.Username,
			Password:   entry.Password,
			PrivateKey: entry.PrivateKey,
			Passphrase: entry.Passphrase,
		}
		if creds.PrivateKey == "" && entry.PrivateKeyFile != "" {
			key, err := os.ReadFile(entry.PrivateKeyFile)
			if err != nil {
				return nil, fmt.Errorf("reading private key for '%s': %w", entry.Id, err)
			}
			creds.PrivateKey = string(key)
		}
		entries[entry.Id] = creds
	}

	return &FileProvider{entries: entries}, nil
}

func (fp *FileProvider) Credential(id string) (Credentials, error) {
	creds, ok := fp.entries[id]
	if !ok {
		return Credentials{}, &ErrNoSuchSecret{id: id}
	}
	return creds, nil
}

// EnvProvider reads <prefix><ID>_USERNAME, _PASSWORD, _PRIVATE_KEY and
// _PASSPHRASE from the environment. The id is upper-cased and anything that
// is not a letter or digit becomes an underscore.
type EnvProvider struct {
	Prefix string
	Lookup func(string) (string, bool)
}

func (ep *EnvProvider) Credential(id string) (Credentials, error) {
	lookup := ep.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	base := ep.Prefix + envName(id)

	username, uok := lookup(base + "_USERNAME")
	password, pok := lookup(base + "_PASSWORD")
	key, kok := lookup(base + "_PRIVATE_KEY")
	passphrase, _ := lookup(base + "_PASSPHRASE")

	if !uok && !pok && !kok {
		return Credentials{}, &ErrNoSuchSecret{id: id}
	}

	return Credentials{
		Username:   username,
		Password:   password,
		PrivateKey: key,
		Passphrase: passphrase,
	}, nil
}

func envName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, id)
}

// Chain asks each provider in turn. A provider that does not know the id is
// skipped; any other error stops the search.
type Chain []Provider

func (c Chain) Credential(id string) (Credentials, error) {
	for _, p := range c {
		creds, err := p.Credential(id)
		if err == nil {
			return creds, nil
		}
		var nosecret *ErrNoSuchSecret
		if !errors.As(err, &nosecret) {
			return Credentials{}, err
		}
	}
	return Credentials{}, &ErrNoSuchSecret{id: id}
}
