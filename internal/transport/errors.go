package transport

import "errors"

var ErrNoTransport = errors.New("no transport configured for user")
