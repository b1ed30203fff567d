package config

const (
	// Database errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"
	ErrGetPostsFmt           = "Failed to get posts: %v"

	// Auth errors
	ErrCreateProviderFmt  = "Failed to create provider: %v"
	ErrInvalidCredentials = "Invalid email or password"
	ErrUnauthorized       = "Unauthorized"

	// Config errors
	ErrWriteConfigContentFmt = "Failed to write config content: %v"

	// Request errors
	ErrInvalidJSON       = "Invalid JSON body"
	ErrImageTooLarge     = "Image exceeds the upload limit"
	ErrNotAnImage        = "Uploaded file is not an image"
	ErrDraftNotFound     = "Draft not found"
	ErrInternalServerErr = "Internal server error"
)
