package simplename

import (
	"errors"
	"fmt"
	"strings"
)

const maxLength = 80

var (
	ErrEmpty          = errors.New("name cannot be empty")
	ErrTooLong        = fmt.Errorf("name cannot be longer than %d characters", maxLength)
	ErrNotASimpleName = errors.New("name contains restricted characters, please only use [A-Za-z0-9:-_.]")
)

// Validate ensures that the name can be used as-is
// in the API paths, e.g. /v1/vms/{name}/power-on.
func Validate(name string) error {
	if name == "" {
		return ErrEmpty
	}

	if len(name) > maxLength {
		return ErrTooLong
	}

	if strings.IndexFunc(name, isRestricted) != -1 {
		return ErrNotASimpleName
	}

	return nil
}

func isRestricted(ch rune) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		return false
	case ch == ':' || ch == '-' || ch == '_' || ch == '.':
		return false
	default:
		return true
	}
}
