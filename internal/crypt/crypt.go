package crypt

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"
)

// Suffix is appended to the plaintext path to name the encrypted file.
const Suffix = ".age"

// EncryptionError wraps the backend diagnostic for a failed encryption.
type EncryptionError struct {
	Path string
	Err  error
}

func (e *EncryptionError) Error() string {
	return fmt.Sprintf("encrypting %s: %s", e.Path, e.Err)
}

func (e *EncryptionError) Unwrap() error {
	return e.Err
}

// Age encrypts files to age recipients. With Armor set the output is PEM
// style ASCII rather than binary.
type Age struct {
	Armor bool
}

// ParseRecipients accepts either a single "age1..." recipient or the path to
// a recipients file with one recipient per line.
func ParseRecipients(recipient string) ([]age.Recipient, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, fmt.Errorf("no recipient given")
	}

	if strings.HasPrefix(recipient, "age1") {
		r, err := age.ParseX25519Recipient(recipient)
		if err != nil {
			return nil, err
		}
		return []age.Recipient{r}, nil
	}

	f, err := os.Open(recipient)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return age.ParseRecipients(f)
}

func (a *Age) Suffix() string {
	return Suffix
}

// Encrypt writes localPath+Suffix and returns its path. The plaintext is
// left untouched.
func (a *Age) Encrypt(localPath, recipient string) (string, error) {
	recipients, err := ParseRecipients(recipient)
	if err != nil {
		return "", &EncryptionError{Path: localPath, Err: err}
	}

	encPath := localPath + Suffix
	if err := a.encryptFile(localPath, encPath, recipients); err != nil {
		return "", &EncryptionError{Path: localPath, Err: err}
	}
	return encPath, nil
}

func (a *Age) encryptFile(src, dst string, recipients []age.Recipient) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	err = a.encryptStream(tmp, in, recipients)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	return os.Rename(tmp.Name(), dst)
}

func (a *Age) encryptStream(out io.Writer, in io.Reader, recipients []age.Recipient) error {
	var awriter io.WriteCloser
	if a.Armor {
		awriter = armor.NewWriter(out)
		out = awriter
	}

	ewriter, err := age.Encrypt(out, recipients...)
	if err != nil {
		return err
	}

	_, err = io.Copy(ewriter, in)

	if cerr := ewriter.Close(); err == nil {
		err = cerr
	}
	if awriter != nil {
		if cerr := awriter.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// GenerateIdentity creates a new X25519 identity and returns the secret key
// and its public recipient string.
func GenerateIdentity() (string, string, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", "", err
	}
	return identity.String(), identity.Recipient().String(), nil
}
