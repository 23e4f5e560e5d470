package helper

import "fmt"

// NewError wraps err with the name of the operation that failed.
// A nil err stays nil.
func NewError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("error %s: %w", operation, err)
}
