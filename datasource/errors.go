package datasource

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid data source config")
	ErrMissingIndex  = errors.New("range queries need an index")
	ErrClosed        = errors.New("data source is closed")
)
