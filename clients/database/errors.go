package database

import "errors"

// ErrNoDatabase is returned by clients that were not connected to a database
var ErrNoDatabase = errors.New("database client is not connected")
