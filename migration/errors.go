package migration

import "github.com/pkg/errors"

var (
	ErrDuplicateVersion  = errors.New("migration version is already registered")
	ErrUnknownDependency = errors.New("migration depends on an unregistered version")
	ErrNotFound          = errors.New("migration version is not registered")
	ErrInvalidVersion    = errors.New("migration version must be a positive number")
	ErrIrreversible      = errors.New("migration does not declare a rollback operation")
)
