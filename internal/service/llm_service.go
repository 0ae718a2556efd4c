package service

import (
	"context"
	"fmt"
	"strings"

	"retire-rag/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

const gigaChatTemperature = 0.3

// LLMService generates plan narratives with GigaChat.
type LLMService struct {
	client    *gigago.Client
	modelName string
	logger    *zap.Logger
}

func NewLLMService(ctx context.Context, cfg *config.GigaChatConfig, modelName string, logger *zap.Logger) (*LLMService, error) {
	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	if modelName == "" {
		modelName = "GigaChat"
	}
	logger.Info("Using GigaChat model", zap.String("model", modelName))

	return &LLMService{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}, nil
}

func (s *LLMService) Generate(ctx context.Context, system, user string) (string, error) {
	model := s.client.GenerativeModel(s.modelName)
	model.SystemInstruction = system
	model.Temperature = gigaChatTemperature

	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: user},
	}

	resp, err := model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate with GigaChat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	s.logger.Debug("GigaChat response received",
		zap.String("model", s.modelName),
		zap.Int("text_length", len(text)),
	)
	return text, nil
}

func (s *LLMService) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
