package usecase

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotConfigured = errors.New("service is not configured")
	ErrNotFound      = errors.New("manifest not found")
	ErrStorageRead   = errors.New("storage read failed")
	ErrStorageWrite  = errors.New("storage write failed")
	ErrCorrupt       = errors.New("manifest is corrupt")
)
