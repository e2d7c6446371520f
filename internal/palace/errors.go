package palace

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrNoCurrentRoom     = errors.New("no current room")
	ErrInvalidConnection = errors.New("invalid connection")
)
