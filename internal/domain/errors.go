package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound          = errors.New("not found")
	ErrEmptyText         = errors.New("no text to read")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrClosed            = errors.New("closed")
)
