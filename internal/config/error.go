package config

import "errors"

var (
	ErrConfigReadFailed = errors.New("failed to read the inventory file")
	ErrConfigInvalid    = errors.New("invalid inventory")
)
