package settings

import "errors"

var (
	// ErrEncode is returned when a value cannot be encoded for storage.
	ErrEncode = errors.New("settings: failed to encode value")
)
