package engine

import (
	"errors"
	"fmt"
)

var (
	ErrNotLeaf     = errors.New("not a script")
	ErrNoBuffer    = errors.New("no script is open")
	ErrUnknownTool = errors.New("unknown tool")
	ErrInvalidName = errors.New("invalid name")
	ErrNameTaken   = errors.New("name already taken")
)

type NotFoundError struct {
	Kind string
	URL  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.URL)
}
