package data

import "errors"

// ErrCacheKeyRequired is returned by cache operations called with an empty key.
var ErrCacheKeyRequired = errors.New("key cannot be empty")
