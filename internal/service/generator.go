package service

import (
	"context"
	"errors"
)

var (
	ErrEmptyResponse = errors.New("generator returned an empty response")
	ErrInvalidInput  = errors.New("invalid input")
	ErrPersistence   = errors.New("failed to persist record")
)

// Generator turns a system and a user prompt into narrative text.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}
