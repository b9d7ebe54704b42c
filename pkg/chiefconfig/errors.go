package chiefconfig

import "errors"

// ErrConfigNotFound is returned when the requested config file does not
// exist on disk.
var ErrConfigNotFound = errors.New("config file not found")
