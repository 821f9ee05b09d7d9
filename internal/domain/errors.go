package domain

import "errors"

var (
	// ErrTemplateMissing signals that the document template file does not exist.
	ErrTemplateMissing = errors.New("document template is not configured")
	// ErrDriveNotConfigured signals missing Drive folder or credentials.
	ErrDriveNotConfigured = errors.New("google drive is not configured")
	// ErrTelegramAPI wraps any non-successful Bot API response.
	ErrTelegramAPI = errors.New("telegram api error")
	// ErrFileTooLarge signals a download above the configured size limit.
	ErrFileTooLarge = errors.New("file exceeds allowed size")
	// ErrUnrecognizedFile signals a message that carries neither a document nor a photo.
	ErrUnrecognizedFile = errors.New("message carries no file")
	// ErrInvalidAdminToken signals a wrong X-API-Key on admin endpoints.
	ErrInvalidAdminToken = errors.New("invalid api key")
)
