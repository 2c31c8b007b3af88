package scans

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-scanner/internal/models"
	"ms-scanner/internal/utils"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrMissingActivityFields = errors.New("missing activity_name or activity_category")
)

type ScanDBLayer interface {
	GetUserByID(id int64) (*models.User, error)
	TouchUser(userID int64, at time.Time) error
	GetActivityByNameAndCategory(name, category string) (*models.Activity, error)
	GetActivityByID(id int64) (*models.Activity, error)
	CreateActivity(activity *models.Activity) error
	CreateScan(scan *models.Scan) error
	GetScansByUser(userID int64) ([]models.Scan, error)
	AggregateScanCounts(filter models.AggregateFilter) ([]models.ActivityFrequency, error)
}

type KafkaPublisher interface {
	PublishScanRecorded(view models.ScanView) error
}

type FrequencyCache interface {
	GetFrequencies(filter models.AggregateFilter) ([]models.ActivityFrequency, error)
	SetFrequencies(filter models.AggregateFilter, rows []models.ActivityFrequency) error
	Invalidate() error
}

type ScanService struct {
	DB    ScanDBLayer
	Kafka KafkaPublisher
	Cache FrequencyCache
}

func NewScanService(db ScanDBLayer, kafka KafkaPublisher, cache FrequencyCache) *ScanService {
	return &ScanService{DB: db, Kafka: kafka, Cache: cache}
}

// ResolveActivity looks up the activity matching the (name, category) pair,
// creating and persisting it on first sight. Repeat calls with the same pair
// return the same row id.
func (s *ScanService) ResolveActivity(name, category string) (*models.Activity, error) {
	activity, err := s.DB.GetActivityByNameAndCategory(name, category)
	if err == nil {
		return activity, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up activity %s/%s: %w", name, category, err)
	}

	created := &models.Activity{Name: name, Category: category}
	if err := s.DB.CreateActivity(created); err != nil {
		return nil, fmt.Errorf("failed to create activity %s/%s: %w", name, category, err)
	}
	return created, nil
}

// RecordScan appends one scan for the user. The user lookup happens before
// payload validation, so an unknown user wins over a bad payload. Validation
// happens before any write: a rejected request leaves zero new rows behind.
// The activity insert and the scan insert commit independently.
func (s *ScanService) RecordScan(userID int64, req models.ScanRequest) (*models.ScanView, error) {
	user, err := s.DB.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user %d: %w", userID, err)
	}

	if req.ActivityName == "" || req.ActivityCategory == "" {
		return nil, ErrMissingActivityFields
	}

	now := time.Now()
	if err := s.DB.TouchUser(user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to touch user %d: %w", user.ID, err)
	}

	activity, err := s.ResolveActivity(req.ActivityName, req.ActivityCategory)
	if err != nil {
		return nil, err
	}

	scan := models.Scan{
		UserID:     user.ID,
		ActivityID: activity.ID,
		ScannedAt:  now,
	}
	if err := s.DB.CreateScan(&scan); err != nil {
		return nil, fmt.Errorf("failed to record scan for user %d: %w", user.ID, err)
	}

	view := &models.ScanView{
		UserID:           user.ID,
		ActivityName:     activity.Name,
		ActivityCategory: activity.Category,
		ScannedAt:        utils.FormatTimestamp(scan.ScannedAt),
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishScanRecorded(*view); err != nil {
			fmt.Printf("Kafka publish error (scan recorded): %v\n", err)
		}
	}
	if s.Cache != nil {
		if err := s.Cache.Invalidate(); err != nil {
			fmt.Printf("Cache invalidation error: %v\n", err)
		}
	}

	return view, nil
}

// ScansForUser assembles the user's scan history in insertion order. A scan
// whose activity no longer resolves gets the "Unknown" sentinels instead of
// failing the whole request.
func (s *ScanService) ScansForUser(userID int64) ([]models.ScanEntry, error) {
	scans, err := s.DB.GetScansByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scans for user %d: %w", userID, err)
	}

	resolved := make(map[int64]*models.Activity, len(scans))
	entries := make([]models.ScanEntry, 0, len(scans))
	for _, scan := range scans {
		activity, ok := resolved[scan.ActivityID]
		if !ok {
			activity, err = s.DB.GetActivityByID(scan.ActivityID)
			if err != nil {
				activity = &models.Activity{Name: "Unknown", Category: "Unknown"}
			}
			resolved[scan.ActivityID] = activity
		}
		entries = append(entries, models.ScanEntry{
			ActivityName:     activity.Name,
			ActivityCategory: activity.Category,
			ScannedAt:        utils.FormatTimestamp(scan.ScannedAt),
		})
	}
	return entries, nil
}

// Aggregate returns scan counts grouped by activity, filtered by the
// optional bounds. Results are served from the cache when one is wired in.
func (s *ScanService) Aggregate(filter models.AggregateFilter) ([]models.ActivityFrequency, error) {
	if s.Cache != nil {
		if rows, err := s.Cache.GetFrequencies(filter); err == nil && rows != nil {
			return rows, nil
		}
	}

	rows, err := s.DB.AggregateScanCounts(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate scan counts: %w", err)
	}

	if s.Cache != nil {
		if err := s.Cache.SetFrequencies(filter, rows); err != nil {
			fmt.Printf("Cache store error: %v\n", err)
		}
	}
	return rows, nil
}
