package ir

// Version constants for the IR encoding and the engine.
const (
	// EncodingVersion is the version of the structure emitted by Encode.
	EncodingVersion = "1"

	// EngineVersion is the dicegraph engine version.
	EngineVersion = "0.1.0"
)
