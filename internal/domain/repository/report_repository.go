package repository

import (
	"context"

	"stakemarket/internal/domain/entity"
)

type ReportRepository interface {
	Create(ctx context.Context, report *entity.MessageReport) error
	GetByID(ctx context.Context, id string) (*entity.MessageReport, error)
	FindByMessageID(ctx context.Context, messageID string) (*entity.MessageReport, error)
	List(ctx context.Context, limit, offset int) ([]*entity.MessageReport, int64, error)
	Update(ctx context.Context, report *entity.MessageReport) error
}
