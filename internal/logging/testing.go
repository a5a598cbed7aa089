// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package logging

import (
	"bytes"

	"github.com/rs/zerolog"
)

// NewTestLogger returns a logger that writes JSON into the returned buffer.
// Tests inspect the buffer to assert on emitted fields.
func NewTestLogger() (zerolog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return zerolog.New(buf).With().Timestamp().Logger(), buf
}

// Discard returns a logger that drops everything. Use it for components under
// test whose log output is irrelevant.
func Discard() zerolog.Logger {
	return zerolog.Nop()
}
