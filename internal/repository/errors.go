package repository

import "errors"

var (
	// ErrInvalidPanelSource indicates a malformed or disallowed panel location
	ErrInvalidPanelSource = errors.New("invalid panel source")

	// ErrPanelNotFound indicates the panel image does not exist at its source
	ErrPanelNotFound = errors.New("panel not found")

	// ErrSourceUnavailable indicates no fetcher is configured for the source scheme
	ErrSourceUnavailable = errors.New("panel source unavailable")

	// ErrHistoryUnavailable indicates the history store cannot be used
	ErrHistoryUnavailable = errors.New("history store unavailable")
)
