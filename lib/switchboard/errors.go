package switchboard

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("switchboard: invalid configuration")
	ErrOutOfRange    = errors.New("switchboard: zone index out of range")
)

type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("switchboard: invalid configuration: %s", e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

type OutOfRangeError struct {
	Index int
	Len   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("switchboard: zone index %d out of range [0,%d)", e.Index, e.Len)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}
