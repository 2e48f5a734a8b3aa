package ir

// Version constants for the IR encoding and the toolchain.
const (
	// IRVersion is the version of the canonical composite encoding.
	IRVersion = "1"

	// ToolVersion is the xacc toolchain version.
	ToolVersion = "0.1.0"
)
