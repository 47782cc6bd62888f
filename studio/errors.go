package studio

import "errors"

var (
	ErrEmptyPrompt         = errors.New("studio: prompt is required")
	ErrPromptTooLong       = errors.New("studio: prompt exceeds maximum length")
	ErrTooManyImages       = errors.New("studio: too many reference images")
	ErrImageTooLarge       = errors.New("studio: reference image exceeds maximum size")
	ErrInvalidImage        = errors.New("studio: reference image is not valid base64")
	ErrInsufficientCredits = errors.New("studio: insufficient credits")
	ErrGenerationFailed    = errors.New("studio: all generation backends failed")
	ErrNoImageReturned     = errors.New("studio: backend returned no image data")
	ErrThumbnailNotFound   = errors.New("studio: thumbnail not found")
)
