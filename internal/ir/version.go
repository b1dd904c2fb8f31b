package ir

// Version constants for the definition format and engine.
const (
	// FormatVersion is the definition/marking serialization version.
	FormatVersion = "1"

	// EngineVersion is the workflow engine version.
	EngineVersion = "0.1.0"
)
