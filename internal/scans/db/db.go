package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"ms-scanner/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ACTIVITIES ----------------

// GetActivityByNameAndCategory → exact match on the natural key
func (d *DB) GetActivityByNameAndCategory(name, category string) (*models.Activity, error) {
	var activity models.Activity
	err := d.Bun.NewSelect().
		Model(&activity).
		Where("name = ?", name).
		Where("category = ?", category).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (d *DB) GetActivityByID(id int64) (*models.Activity, error) {
	var activity models.Activity
	err := d.Bun.NewSelect().
		Model(&activity).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

// CreateActivity → insert new activity; the generated id is scanned back
// into the model.
func (d *DB) CreateActivity(activity *models.Activity) error {
	_, err := d.Bun.NewInsert().Model(activity).Exec(context.Background())
	return err
}

// ---------------- SCANS ----------------

// CreateScan → append one row to the scan ledger
func (d *DB) CreateScan(scan *models.Scan) error {
	_, err := d.Bun.NewInsert().Model(scan).Exec(context.Background())
	return err
}

// GetScansByUser → all scans for a user in insertion order
func (d *DB) GetScansByUser(userID int64) ([]models.Scan, error) {
	var scans []models.Scan
	err := d.Bun.NewSelect().
		Model(&scans).
		Where("user_id = ?", userID).
		Order("id ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return scans, nil
}

// AggregateScanCounts groups the scan ledger by activity and counts rows per
// group. Activities with no scans never appear: the aggregation is driven by
// an inner join from scans to activities. A min or max frequency of zero
// means that bound was not supplied.
func (d *DB) AggregateScanCounts(filter models.AggregateFilter) ([]models.ActivityFrequency, error) {
	rows := make([]models.ActivityFrequency, 0)

	q := d.Bun.NewSelect().
		ColumnExpr("a.name AS activity_name").
		ColumnExpr("a.category AS activity_category").
		ColumnExpr("COUNT(s.id) AS scan_count").
		TableExpr("scans AS s").
		Join("JOIN activities AS a ON a.id = s.activity_id").
		GroupExpr("a.id, a.name, a.category")

	if filter.Category != "" {
		q = q.Where("a.category = ?", filter.Category)
	}
	if filter.MinFrequency > 0 {
		q = q.Having("COUNT(s.id) >= ?", filter.MinFrequency)
	}
	if filter.MaxFrequency > 0 {
		q = q.Having("COUNT(s.id) <= ?", filter.MaxFrequency)
	}

	err := q.Scan(context.Background(), &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ---------------- RELATION QUERIES ----------------

// GetUserByID → fetch the user a scan is being recorded against
func (d *DB) GetUserByID(id int64) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// TouchUser → refresh a user's updated_at timestamp
func (d *DB) TouchUser(userID int64, at time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("updated_at = ?", at).
		Where("id = ?", userID).
		Exec(context.Background())
	return err
}
