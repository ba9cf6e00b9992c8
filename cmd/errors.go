package cmd

import "fmt"

// ErrInvalidDirectory is returned when the provided --path is unusable.
type ErrInvalidDirectory struct {
	Path string
	Err  error
}

func (e *ErrInvalidDirectory) Error() string {
	return fmt.Sprintf("invalid directory '%s': %v", e.Path, e.Err)
}
