package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"stakemarket/internal/domain/entity"
	"stakemarket/internal/domain/repository"
	"stakemarket/pkg/errors"
)

type firestoreReportRepository struct {
	client *firestore.Client
}

func NewFirestoreReportRepository(client *firestore.Client) repository.ReportRepository {
	return &firestoreReportRepository{client: client}
}

func (r *firestoreReportRepository) Create(ctx context.Context, report *entity.MessageReport) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	now := time.Now()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now

	_, err := r.client.Collection("message_reports").Doc(report.ID).Set(ctx, report)
	if err != nil {
		return errors.Internal("Failed to create report", err)
	}
	return nil
}

func (r *firestoreReportRepository) GetByID(ctx context.Context, id string) (*entity.MessageReport, error) {
	doc, err := r.client.Collection("message_reports").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Report", err)
		}
		return nil, errors.Internal("Failed to get report", err)
	}

	var report entity.MessageReport
	if err := doc.DataTo(&report); err != nil {
		return nil, errors.Internal("Failed to parse report data", err)
	}
	return &report, nil
}

func (r *firestoreReportRepository) FindByMessageID(ctx context.Context, messageID string) (*entity.MessageReport, error) {
	iter := r.client.Collection("message_reports").
		Where("messageId", "==", messageID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Report", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to look up report", err)
	}

	var report entity.MessageReport
	if err := doc.DataTo(&report); err != nil {
		return nil, errors.Internal("Failed to parse report data", err)
	}
	return &report, nil
}

func (r *firestoreReportRepository) List(ctx context.Context, limit, offset int) ([]*entity.MessageReport, int64, error) {
	query := r.client.Collection("message_reports").OrderBy("updatedAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to fetch reports", err)
	}

	total := int64(len(allDocs))

	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var reports []*entity.MessageReport
	for i := start; i < end; i++ {
		var report entity.MessageReport
		if err := allDocs[i].DataTo(&report); err != nil {
			continue
		}
		reports = append(reports, &report)
	}

	return reports, total, nil
}

func (r *firestoreReportRepository) Update(ctx context.Context, report *entity.MessageReport) error {
	report.UpdatedAt = time.Now()

	_, err := r.client.Collection("message_reports").Doc(report.ID).Set(ctx, report)
	if err != nil {
		return errors.Internal("Failed to update report", err)
	}
	return nil
}
