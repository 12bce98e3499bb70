package vmpowerhome

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrFailed = errors.New("failed to retrieve vmpower's home directory path")

// Path returns the per-user directory that vmpower keeps its state in,
// which is $VMPOWER_HOME or ~/.vmpower when the former is not set.
func Path() (string, error) {
	vmpowerDir, ok := os.LookupEnv("VMPOWER_HOME")
	if !ok {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: failed to retrieve current user's home directory %v",
				ErrFailed, err)
		}

		vmpowerDir = filepath.Join(homeDir, ".vmpower")
	}

	if err := os.MkdirAll(vmpowerDir, 0700); err != nil {
		return "", fmt.Errorf("%w: cannot create directory %s: %v",
			ErrFailed, vmpowerDir, err)
	}

	return vmpowerDir, nil
}
