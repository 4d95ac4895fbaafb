package generation

import "errors"

// Common errors returned by the generation package and its adapters.
var (
	// ErrInvalidConfig is returned when the credential or generator
	// configuration is missing, a placeholder, or malformed. It is never retried.
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrEmptyScript is returned when the script call produced no text.
	ErrEmptyScript = errors.New("no script generated")

	// ErrInvalidResponse is returned when the model response cannot be parsed
	// into the expected structure.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrImageGenerationFailed is returned when the image call succeeded but
	// carried no inline image data.
	ErrImageGenerationFailed = errors.New("image generation failed")

	// ErrContentBlocked is returned when the model refused the prompt on
	// safety grounds.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")
)
