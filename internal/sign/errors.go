package sign

import "fmt"

// CredentialError indicates the signing credentials could not be
// loaded or used: missing files, wrong passphrase, unsupported key
// material.
type CredentialError struct {
	Source  string
	Message string
	Err     error
}

func (e *CredentialError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("credential error (%s): %s: %v", e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("credential error (%s): %s", e.Source, e.Message)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// NewCredentialError creates a CredentialError wrapping an optional
// underlying cause.
func NewCredentialError(source, message string, err error) *CredentialError {
	return &CredentialError{Source: source, Message: message, Err: err}
}
