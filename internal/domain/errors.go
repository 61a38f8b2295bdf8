package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrRegistrationFailed  = errors.New("upload registration failed")
	ErrUploadsDisabled     = errors.New("uploads are disabled: storage is not configured")
	ErrNoActiveItem        = errors.New("no file staged for upload")
	ErrItemNotUploadable   = errors.New("file cannot be uploaded")
	ErrUploadInProgress    = errors.New("upload already in progress")
	ErrBusinessPartnerOnly = errors.New("action is available to business partners only")
	ErrBackendUnavailable  = errors.New("backend unavailable")
	ErrInvalidPayload      = errors.New("backend returned an invalid payload")
)
