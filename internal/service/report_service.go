package service

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/metrics"
	"alcyxob/coach-app/internal/progress"
	"alcyxob/coach-app/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

var ErrArchiveDisabled = errors.New("report archiving is not configured")

// ReportArchive is a stored report snapshot.
type ReportArchive struct {
	Key         string
	DownloadURL string
	ExpiresIn   time.Duration
	Report      domain.Report
}

type ReportService interface {
	StudentReport(ctx context.Context, trainerID, studentID primitive.ObjectID, from, to time.Time) (*domain.Report, error)
	TrainerReports(ctx context.Context, trainerID primitive.ObjectID, from, to time.Time) ([]domain.Report, error)
	// Archive builds the student's report, stores it as JSON and returns a
	// temporary download link.
	Archive(ctx context.Context, trainerID, studentID primitive.ObjectID, from, to time.Time) (*ReportArchive, error)
}

type reportService struct {
	aggregator    *progress.Aggregator
	fileStorage   storage.FileStorage
	presignExpiry time.Duration
	metrics       *metrics.Manager
}

// NewReportService creates a ReportService. fileStorage may be nil, in which
// case Archive returns ErrArchiveDisabled.
func NewReportService(aggregator *progress.Aggregator, fileStorage storage.FileStorage, presignExpiry time.Duration, metricsManager *metrics.Manager) ReportService {
	if presignExpiry <= 0 {
		presignExpiry = storage.DefaultPresignedURLExpiry
	}
	return &reportService{
		aggregator:    aggregator,
		fileStorage:   fileStorage,
		presignExpiry: presignExpiry,
		metrics:       metricsManager,
	}
}

func (s *reportService) StudentReport(ctx context.Context, trainerID, studentID primitive.ObjectID, from, to time.Time) (*domain.Report, error) {
	report, err := s.aggregator.BuildReport(ctx, trainerID, studentID, from, to)
	if err != nil {
		return nil, err
	}
	s.metrics.ReportsBuilt(1)
	return report, nil
}

func (s *reportService) TrainerReports(ctx context.Context, trainerID primitive.ObjectID, from, to time.Time) ([]domain.Report, error) {
	reports, err := s.aggregator.BuildReports(ctx, trainerID, from, to)
	if err != nil {
		return nil, err
	}
	s.metrics.ReportsBuilt(len(reports))
	return reports, nil
}

func (s *reportService) Archive(ctx context.Context, trainerID, studentID primitive.ObjectID, from, to time.Time) (*ReportArchive, error) {
	if s.fileStorage == nil {
		return nil, ErrArchiveDisabled
	}
	report, err := s.StudentReport(ctx, trainerID, studentID, from, to)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}

	key := fmt.Sprintf("reports/%s/%s/%s.json", trainerID.Hex(), studentID.Hex(), uuid.NewString())
	if err := s.fileStorage.PutObject(ctx, key, "application/json", body); err != nil {
		return nil, fmt.Errorf("storing report: %w", err)
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, key, s.presignExpiry)
	if err != nil {
		// nobody can reach the object without a link
		err = fmt.Errorf("presigning report: %w", err)
		if delErr := s.fileStorage.DeleteObject(ctx, key); delErr != nil {
			log.WithError(delErr).WithField("key", key).Warn("could not remove unreachable report")
			err = multierr.Append(err, fmt.Errorf("removing report: %w", delErr))
		}
		return nil, err
	}

	log.WithFields(log.Fields{"trainer": trainerID.Hex(), "key": key}).Info("report archived")
	return &ReportArchive{Key: key, DownloadURL: url, ExpiresIn: s.presignExpiry, Report: *report}, nil
}
