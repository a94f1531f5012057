package domain

import "errors"

var (
	// ErrDirectoryNotFound signals a missing ingestion directory (deployment error).
	ErrDirectoryNotFound = errors.New("directory not found")
	// ErrEmptyFile signals a zero-byte source file, skipped per file.
	ErrEmptyFile = errors.New("file is empty")
	// ErrUnsupportedFormat signals a file extension the cleaner cannot convert.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrProviderNotImplemented signals an unknown embedding or chat provider (deployment error).
	ErrProviderNotImplemented = errors.New("provider not implemented")
	// ErrEmbeddingFailed signals an embedding provider failure after retries.
	ErrEmbeddingFailed = errors.New("embedding failed")
	// ErrVectorDimMismatch signals a vector whose length differs from the configured dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
