package usecase

import (
	"context"
	"encoding/json"
	"log"

	"dmbox/infrastructure/ws"
	"dmbox/internal/entity"
	"dmbox/internal/repository"
)

// AlertUsecase is the alerting collaborator: it persists alerts and
// pushes them to connected recipients over the hub.
type AlertUsecase interface {
	CreateAlert(ctx context.Context, recipientId, actorId, alertType string) error
	ListForUser(ctx context.Context, userId string, limit int) ([]entity.Alert, error)
	MarkSeen(ctx context.Context, userId string) error
}

type alertUsecase struct {
	alertRepo repository.AlertRepository
	hub       ws.IHub
}

func NewAlertUsecase(alertRepo repository.AlertRepository, hub ws.IHub) AlertUsecase {
	return &alertUsecase{
		alertRepo: alertRepo,
		hub:       hub,
	}
}

func (a *alertUsecase) CreateAlert(ctx context.Context, recipientId, actorId, alertType string) error {
	alert, err := a.alertRepo.Create(ctx, entity.Alert{
		RecipientId: recipientId,
		ActorId:     actorId,
		Type:        alertType,
	})
	if err != nil {
		return err
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		log.Printf("marshal alert error: %v", err)
		return nil
	}
	a.hub.SendToUser(recipientId, payload)

	return nil
}

func (a *alertUsecase) ListForUser(ctx context.Context, userId string, limit int) ([]entity.Alert, error) {
	return a.alertRepo.ListForUser(ctx, userId, limit)
}

func (a *alertUsecase) MarkSeen(ctx context.Context, userId string) error {
	return a.alertRepo.MarkSeen(ctx, userId)
}
