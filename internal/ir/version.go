package ir

// Version constants for the IR schema and the binder.
const (
	// IRVersion is the IR schema version stored with every catalog snapshot.
	IRVersion = "1"

	// BinderVersion is the callbind binder version.
	BinderVersion = "0.1.0"
)
