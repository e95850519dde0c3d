package compositor

import "errors"

var (
	ErrRegistryFull         = errors.New("backend registry is full")
	ErrDuplicateBackend     = errors.New("backend already registered")
	ErrInvalidDescriptor    = errors.New("backend name and provider are required")
	ErrBackendNotRegistered = errors.New("backend not registered")
	ErrNoBackend            = errors.New("no compositor backend could be initialized")
	ErrBackendClosed        = errors.New("backend has been cleaned up")
	ErrUnknownOutput        = errors.New("output was not enumerated by the backend")
	ErrOutputChange         = errors.New("surface output cannot change after creation")
	ErrSurfaceDestroyed     = errors.New("surface has been destroyed")
	ErrNoEGL                = errors.New("no EGL platform available")
	ErrWrongDisplay         = errors.New("display connection does not match backend protocol")
	ErrNotDispatchable      = errors.New("backend has no event loop")
)
