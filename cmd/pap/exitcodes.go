package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (no repository, bad config key)
	ExitDataError   = 3 // Data error (undecodable entry, invalid citekey, missing file)
	ExitLookupError = 4 // DOI/ISBN lookup failed or paper not found
	ExitCollision   = 5 // Citekey already exists
	ExitLocked      = 6 // Repository locked by another process
)
