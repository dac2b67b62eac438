// Package storage provides the data persistence layer for the retune application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"retune/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrEmptySlice       = errors.New("slice cannot be empty")
	ErrInvalidScopeID   = errors.New("scope ID must be positive")
	ErrInvalidRule      = errors.New("invalid rule")
	ErrInvalidFilter    = errors.New("invalid filter")
	ErrInvalidChannel   = errors.New("invalid channel")
	ErrInvalidTag       = errors.New("invalid tag assignment")
	ErrInvalidTimestamp = errors.New("timestamp cannot be zero")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateScopeID ensures a scope identifier is usable.
func validateScopeID(scopeID int64) error {
	if scopeID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidScopeID, scopeID)
	}
	return nil
}

// validateRule validates a rule before persistence.
func validateRule(rule *model.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if err := validateScopeID(rule.ScopeID); err != nil {
		return err
	}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return nil
}

// validateFilter validates a filter before persistence.
func validateFilter(filter *model.Filter) error {
	if filter == nil {
		return fmt.Errorf("%w: filter", ErrNilParameter)
	}
	if err := validateScopeID(filter.ScopeID); err != nil {
		return err
	}
	if err := filter.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return nil
}

// validateChannels validates a slice of channels.
func validateChannels(channels []model.Channel) error {
	if channels == nil {
		return fmt.Errorf("%w: channels", ErrNilParameter)
	}
	if len(channels) == 0 {
		return fmt.Errorf("%w: channels", ErrEmptySlice)
	}

	for i, ch := range channels {
		if err := ch.Validate(); err != nil {
			return fmt.Errorf("%w at index %d: %v", ErrInvalidChannel, i, err)
		}
	}
	return nil
}

// validateAssignment validates a tag assignment before persistence.
func validateAssignment(assignment *model.TagAssignment) error {
	if assignment == nil {
		return fmt.Errorf("%w: assignment", ErrNilParameter)
	}
	if err := validateScopeID(assignment.ScopeID); err != nil {
		return err
	}
	if assignment.StreamID == "" {
		return fmt.Errorf("%w: missing stream ID", ErrInvalidTag)
	}
	if assignment.TagName == "" {
		return fmt.Errorf("%w: missing tag name", ErrInvalidTag)
	}
	if assignment.UpdatedAt.IsZero() {
		return fmt.Errorf("%w: updated_at", ErrInvalidTimestamp)
	}
	return nil
}
