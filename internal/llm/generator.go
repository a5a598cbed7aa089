// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

// Package llm integrates an OpenAI-compatible chat completion endpoint for
// recommendation narration and trend-aware category selection. Every caller
// degrades gracefully when the model is unreachable, so the platform never
// depends on the provider being up.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// Package errors.
var (
	// ErrDisabled is returned when language-model features are turned off.
	ErrDisabled = errors.New("llm: disabled")
	// ErrEmptyResponse is returned when the provider replies with no content.
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrInvalidJSON is returned when a JSON-mode reply cannot be decoded.
	ErrInvalidJSON = errors.New("llm: invalid json response")
)

// TextGenerator produces completions for a system/user prompt pair.
type TextGenerator interface {
	// GenerateText returns the raw completion text.
	GenerateText(ctx context.Context, system, user string) (string, error)
	// GenerateJSON decodes a JSON completion into out. Implementations
	// tolerate markdown code fences around the payload.
	GenerateJSON(ctx context.Context, system, user string, out any) error
}

// StaticGenerator returns canned responses. It exists for tests and for
// running the stack with llm.enabled=false.
type StaticGenerator struct {
	Text string
	Err  error

	// Calls records the user prompts seen, newest last.
	Calls []string
}

var _ TextGenerator = (*StaticGenerator)(nil)

// GenerateText implements TextGenerator.
func (s *StaticGenerator) GenerateText(_ context.Context, _, user string) (string, error) {
	s.Calls = append(s.Calls, user)
	if s.Err != nil {
		return "", s.Err
	}
	return s.Text, nil
}

// GenerateJSON implements TextGenerator.
func (s *StaticGenerator) GenerateJSON(ctx context.Context, system, user string, out any) error {
	text, err := s.GenerateText(ctx, system, user)
	if err != nil {
		return err
	}
	return decodeJSONReply(text, out)
}

// decodeJSONReply strips optional markdown code fences and unmarshals the
// remaining payload. Models frequently wrap JSON in ```json blocks even when
// asked not to.
func decodeJSONReply(text string, out any) error {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}
