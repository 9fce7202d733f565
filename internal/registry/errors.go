package registry

import "errors"

var (
	ErrSubjectNotFound = errors.New("subject not found")
	ErrVersionNotFound = errors.New("version not found")
	ErrSchemaNotFound  = errors.New("schema not found")
	ErrVersionLimit    = errors.New("subject version limit reached")
)
