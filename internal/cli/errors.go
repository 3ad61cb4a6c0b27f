package cli

import (
	"errors"
	"fmt"
)

var errAborted = errors.New("aborted")

type notFoundError struct {
	kind string
	url  string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.url)
}

func errNotFound(kind, url string) error {
	return notFoundError{kind: kind, url: url}
}
