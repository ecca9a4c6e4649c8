package services

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProvider     = errors.New("unknown provider")
	ErrMissingClientID     = errors.New("missing client id")
	ErrMissingClientSecret = errors.New("missing client secret")
	ErrNoCredential        = errors.New("no usable credential for provider")
	ErrUnknownTestType     = errors.New("unknown test type")
	ErrInvalidRedirectURI  = errors.New("redirect uri must be an absolute http(s) url")
)

// MissingCredentialError names the environment variable an operator would
// set to fix a missing client credential, e.g. "SLACK_CLIENT_ID".
type MissingCredentialError struct {
	Variable string
	err      error
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("Missing %s", e.Variable)
}

func (e *MissingCredentialError) Unwrap() error {
	return e.err
}

func missingClientID(prefix string) error {
	return &MissingCredentialError{Variable: prefix + "_CLIENT_ID", err: ErrMissingClientID}
}

func missingClientSecret(prefix string) error {
	return &MissingCredentialError{Variable: prefix + "_CLIENT_SECRET", err: ErrMissingClientSecret}
}
