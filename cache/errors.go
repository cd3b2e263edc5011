package cache

import "errors"

var errNotInitialized = errors.New("Redis client not initialized")
