// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failed send.
type Kind int

const (
	// KindNone is the kind of a nil error.
	KindNone Kind = iota
	KindQuotaExceeded
	KindNetwork
	KindCertificate
	KindRemote
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindQuotaExceeded:
		return "QuotaExceeded"
	case KindNetwork:
		return "NetworkError"
	case KindCertificate:
		return "CertificateError"
	case KindRemote:
		return "RemoteError"
	default:
		return "UnknownError"
	}
}

// Error is a classified send failure.
type Error struct {
	Kind Kind

	// Status is the HTTP status for KindRemote, 0 otherwise.
	Status int

	// Message is the most specific human-readable description available.
	Message string

	// Body is the raw response body for KindRemote.
	Body string

	Err error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// UserMessage returns the text shown to the user for err.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindNone:
		return ""
	case KindQuotaExceeded:
		return "You've used all the calls available in this session. Start a new session to keep chatting."
	case KindNetwork:
		return "Couldn't reach the assistant. Check your connection and try again."
	case KindCertificate:
		return "The assistant's certificate could not be verified, so the connection was refused."
	case KindRemote:
		var ce *Error
		if errors.As(err, &ce) && ce.Message != "" {
			return "The assistant returned an error: " + ce.Message
		}
		return "The assistant returned an error."
	default:
		return "Sorry, I encountered an error. Please try again."
	}
}
