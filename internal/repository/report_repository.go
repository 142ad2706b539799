package repository

import (
	"context"
	"time"

	"dmbox/internal/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

type ReportRepository interface {
	Create(ctx context.Context, report entity.Report) (string, error)
}

type reportRepository struct {
	db mongo.Database
}

func NewReportRepository(db mongo.Database) ReportRepository {
	return &reportRepository{
		db: db,
	}
}

func (r *reportRepository) Create(ctx context.Context, report entity.Report) (string, error) {
	collection := r.db.Collection("reports")
	report.Id = uuid.New().String()
	report.Status = entity.ReportStatusPending
	report.CreatedAt = time.Now()

	_, err := collection.InsertOne(ctx, report)
	if err != nil {
		return "", err
	}

	return report.Id, nil
}
