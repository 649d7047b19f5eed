package repository

import (
	"context"
	"errors"

	"backend/internal/apperror"
	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CaseFilter narrows case listings. Role scoping is expressed through the
// owner/officer fields filled in by the service layer.
type CaseFilter struct {
	Status          string
	Stage           string
	CreatedByUserID *uuid.UUID
	VictimPhone     string
	VictimEmail     string
	OfficerUserID   *uuid.UUID
	Page            int
	Limit           int
}

// StatusCount is a status -> row count aggregation bucket.
type StatusCount struct {
	Status string
	Count  int64
}

// CaseRepository defines data access for Case entities
type CaseRepository interface {
	Create(ctx context.Context, c *model.Case) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Case, error)
	List(ctx context.Context, filter CaseFilter) ([]model.Case, int64, error)
	// UpdateStatusGuarded applies a status change only while the row still
	// holds expectedStatus; a guard miss returns apperror.ErrConflict and
	// the caller must re-read before retrying.
	UpdateStatusGuarded(ctx context.Context, id uuid.UUID, expectedStatus string, fields map[string]interface{}) error
	Update(ctx context.Context, c *model.Case) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter CaseFilter) (int64, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	// FundTotals sums compensation across all cases: allocated is the sum of
	// compensation_amount, disbursed the sum of disbursed_amount.
	FundTotals(ctx context.Context) (allocated, disbursed decimal.Decimal, err error)
	VisibleCaseIDs(ctx context.Context, filter CaseFilter) ([]uuid.UUID, error)
}

type caseRepository struct {
	db *gorm.DB
}

func NewCaseRepository(db *gorm.DB) CaseRepository {
	return &caseRepository{db: db}
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) error {
	return GetDB(ctx, r.db).Create(c).Error
}

func (r *caseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Case, error) {
	var c model.Case
	err := GetDB(ctx, r.db).
		Preload("AssignedOfficer").
		First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Wrap(apperror.ErrNotFound, "find case", err)
		}
		return nil, err
	}
	return &c, nil
}

func (r *caseRepository) applyFilter(query *gorm.DB, filter CaseFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Stage != "" {
		query = query.Where("stage = ?", filter.Stage)
	}
	if filter.VictimPhone != "" || filter.VictimEmail != "" {
		// Victim scoping: cases matching either contact identity
		query = query.Where("victim_phone = ? OR victim_email = ?", filter.VictimPhone, filter.VictimEmail)
	}
	if filter.OfficerUserID != nil {
		query = query.Where("assigned_officer_user_id = ? OR created_by_user_id = ?", filter.OfficerUserID, filter.OfficerUserID)
	} else if filter.CreatedByUserID != nil {
		query = query.Where("created_by_user_id = ?", filter.CreatedByUserID)
	}
	return query
}

func (r *caseRepository) List(ctx context.Context, filter CaseFilter) ([]model.Case, int64, error) {
	db := GetDB(ctx, r.db)
	query := r.applyFilter(db.Model(&model.Case{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var cases []model.Case
	if err := query.
		Preload("AssignedOfficer").
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&cases).Error; err != nil {
		return nil, 0, err
	}

	return cases, total, nil
}

func (r *caseRepository) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, expectedStatus string, fields map[string]interface{}) error {
	res := GetDB(ctx, r.db).
		Model(&model.Case{}).
		Where("id = ? AND status = ?", id, expectedStatus).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.Wrap(apperror.ErrConflict, "update case status",
			errors.New("case status changed since read"))
	}
	return nil
}

func (r *caseRepository) Update(ctx context.Context, c *model.Case) error {
	return GetDB(ctx, r.db).Save(c).Error
}

func (r *caseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Case{}).Error
}

func (r *caseRepository) Count(ctx context.Context, filter CaseFilter) (int64, error) {
	var total int64
	err := r.applyFilter(GetDB(ctx, r.db).Model(&model.Case{}), filter).Count(&total).Error
	return total, err
}

func (r *caseRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := GetDB(ctx, r.db).
		Model(&model.Case{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error
	return counts, err
}

func (r *caseRepository) FundTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	var totals struct {
		Allocated decimal.Decimal
		Disbursed decimal.Decimal
	}
	err := GetDB(ctx, r.db).
		Model(&model.Case{}).
		Select("COALESCE(SUM(compensation_amount), 0) as allocated, COALESCE(SUM(disbursed_amount), 0) as disbursed").
		Scan(&totals).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return totals.Allocated, totals.Disbursed, nil
}

// VisibleCaseIDs returns the ids of cases matching the filter's scoping
// fields, used to restrict grievance listings to the caller's cases.
func (r *caseRepository) VisibleCaseIDs(ctx context.Context, filter CaseFilter) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.applyFilter(GetDB(ctx, r.db).Model(&model.Case{}), filter).
		Pluck("id", &ids).Error
	return ids, err
}
