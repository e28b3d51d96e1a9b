package types

// Version is the canonical mpimg version.
// The CLI, notification payloads and the state file share it.
const Version = "0.4.0"

// StateVersion is the schema version written into the state file.
// Bump it when the persisted emission record changes shape.
const StateVersion = 1
