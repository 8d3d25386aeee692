package main

// Exit codes returned by the CLI.
const (
	ExitSuccess       = 0 // Success
	ExitError         = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError   = 2 // Configuration error (missing repository, index not found)
	ExitOllamaError   = 3 // Ollama not available
	ExitCorruptIndex  = 4 // Index artifacts missing or unreadable
	ExitModelNotFound = 5 // Embedding model not found
	ExitNoDocuments   = 6 // No supported documents found to ingest
)
