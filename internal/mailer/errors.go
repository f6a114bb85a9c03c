package mailer

import "fmt"

// ErrorKind classifies why a dispatch failed
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindRender    ErrorKind = "render"
	KindRecipient ErrorKind = "recipient"
)

// DispatchError is returned by every failed send. The dispatcher never
// swallows it; deciding whether a failure matters is the caller's job.
type DispatchError struct {
	Kind ErrorKind
	To   string
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("mail dispatch to %q failed (%s): %v", e.To, e.Kind, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
