package remote

import (
	"fmt"
)

type ErrUnknownProtocol struct {
	protocol string
}

func (e *ErrUnknownProtocol) Error() string {
	return fmt.Sprintf("no store available for protocol: '%s'", e.protocol)
}

// ConnectionError reports a network or authentication failure while opening
// a session.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s: %s", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

type ListError struct {
	Directory string
	Err       error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("listing %s: %s", e.Directory, e.Err)
}

func (e *ListError) Unwrap() error {
	return e.Err
}

// TransferError reports a failed fetch or put of a single file.
type TransferError struct {
	Op   string
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

type ErrShortTransfer struct {
	expected int64
	actual   int64
}

func (e *ErrShortTransfer) Error() string {
	return fmt.Sprintf("transferred %d bytes, expected %d", e.actual, e.expected)
}
