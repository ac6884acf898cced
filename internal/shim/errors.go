package shim

import "errors"

// ErrNotFound reports that an export directory or one of its required
// artifacts (meta graph file, variables file) is missing. It is the only
// fatal error kind the loader produces for absent inputs; unconvertible
// signature shapes are never errors.
var ErrNotFound = errors.New("not found")
