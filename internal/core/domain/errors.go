package domain

import "errors"

// ErrInputNotFound is an error thrown when the source file does not exist
var ErrInputNotFound = errors.New("input file not found")

// ErrMetadataUnavailable is an error thrown when source file metadata cannot be read
var ErrMetadataUnavailable = errors.New("metadata unavailable")

// ErrThumbnailGeneration is an error thrown when thumbnail extraction fails
var ErrThumbnailGeneration = errors.New("thumbnail generation failed")

// ErrCompressionFailed is an error thrown when video compression fails
var ErrCompressionFailed = errors.New("compression failed")

// ErrAlreadyProcessing is an error thrown when a source is already being processed
var ErrAlreadyProcessing = errors.New("already processing")

// ErrTransferFailed is an error thrown when an upload transfer fails
var ErrTransferFailed = errors.New("transfer failed")

// ErrCapacityExceeded is an error thrown when a file is over the size limit
var ErrCapacityExceeded = errors.New("file size over limit")

// ErrCacheIO is an error thrown when the content cache cannot read or write its storage
var ErrCacheIO = errors.New("cache io failed")

// ErrSchedulerClosed is an error thrown when enqueueing on a shut down scheduler
var ErrSchedulerClosed = errors.New("scheduler closed")
