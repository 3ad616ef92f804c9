package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrTooMany
	ErrInternal
	ErrInvalidFile
	ErrExtraction
	ErrIndexNotBuilt
	ErrNoDocumentLoaded
	ErrModelUnavailable
	ErrGeneration
	ErrUploadFailed
)
