package store

import "errors"

// ErrRecordNotFound is returned for missing rows and for token records that
// were found already expired (and removed) on read.
var ErrRecordNotFound = errors.New("record not found")
