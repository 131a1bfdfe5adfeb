package eventhub

import "errors"

// Registration errors (spec C7), surfaced exclusively through completion callbacks.
var (
	ErrInvalidExtensionName   = errors.New("invalid extension name")
	ErrDuplicateExtensionName = errors.New("duplicate extension name")
	ErrExtensionNotRegistered = errors.New("extension not registered")
	ErrExtensionInitFailure   = errors.New("extension initialization failure")
)

// Ambient errors for the configuration layer.
var (
	ErrConfigSectionMissing   = errors.New("hub config: section missing")
	ErrConfigFeederFailed     = errors.New("hub config: feeder failed")
	ErrPreprocessorNotAllowed = errors.New("hub config: preprocessor name not in allow list")
)
