package services

import "errors"

// Dashboard service errors
var (
	// Upload errors
	ErrNoFilesUploaded  = errors.New("no files uploaded")
	ErrUploadTooLarge   = errors.New("uploaded file exceeds size limit")
	ErrUnsupportedFile  = errors.New("unsupported file type")
	ErrFileNotRecognized = errors.New("file not recognized")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
)
