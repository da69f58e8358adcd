package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"finflow/models"
)

// LLMService proxies chat requests to the completion provider, threading the
// stored conversation context through every call and persisting each
// exchange as a transcript row.
type LLMService struct {
	db            *gorm.DB
	client        ChatClient
	conversations ConversationStore
	gateway       *FeatureGateway
}

func NewLLMService(db *gorm.DB, client ChatClient, conversations ConversationStore, gateway *FeatureGateway) *LLMService {
	return &LLMService{
		db:            db,
		client:        client,
		conversations: conversations,
		gateway:       gateway,
	}
}

// Chat runs one metered chat exchange for the user.
func (s *LLMService) Chat(ctx context.Context, userID uuid.UUID, message string) (string, error) {
	result, err := s.gateway.Run(ctx, userID, models.FeatureLLMRequests, func(ctx context.Context) (interface{}, error) {
		return s.generateResponse(ctx, userID, message)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (s *LLMService) generateResponse(ctx context.Context, userID uuid.UUID, message string) (string, error) {
	history, err := s.conversations.History(ctx, userID)
	if err != nil {
		return "", err
	}

	userMsg := ChatMessage{Role: "user", Content: message}
	transcript := append(history, userMsg)

	response, err := s.client.SendMessage(ctx, transcript)
	if err != nil {
		return "", err
	}

	assistantMsg := ChatMessage{Role: "assistant", Content: response}
	if err := s.conversations.Append(ctx, userID, userMsg, assistantMsg); err != nil {
		return "", err
	}

	logEntry := &models.ConversationLog{
		UserID:   userID,
		Message:  message,
		Response: response,
	}
	if err := s.db.WithContext(ctx).Create(logEntry).Error; err != nil {
		return "", err
	}

	return response, nil
}
