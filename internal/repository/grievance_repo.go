package repository

import (
	"context"
	"errors"

	"backend/internal/apperror"
	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GrievanceFilter narrows grievance listings.
type GrievanceFilter struct {
	CaseID          *uuid.UUID
	CaseIDs         []uuid.UUID // role scoping: restrict to the caller's visible cases
	CreatedByUserID *uuid.UUID
	Status          string
	Priority        string
	Page            int
	Limit           int
}

// GrievanceRepository defines data access for Grievance entities
type GrievanceRepository interface {
	Create(ctx context.Context, g *model.Grievance) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Grievance, error)
	List(ctx context.Context, filter GrievanceFilter) ([]model.Grievance, int64, error)
	Update(ctx context.Context, g *model.Grievance) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter GrievanceFilter) (int64, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	CountByPriority(ctx context.Context, priority string) (int64, error)
}

type grievanceRepository struct {
	db *gorm.DB
}

func NewGrievanceRepository(db *gorm.DB) GrievanceRepository {
	return &grievanceRepository{db: db}
}

func (r *grievanceRepository) Create(ctx context.Context, g *model.Grievance) error {
	return GetDB(ctx, r.db).Create(g).Error
}

func (r *grievanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Grievance, error) {
	var g model.Grievance
	err := GetDB(ctx, r.db).Preload("Case").First(&g, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Wrap(apperror.ErrNotFound, "find grievance", err)
		}
		return nil, err
	}
	return &g, nil
}

func (r *grievanceRepository) List(ctx context.Context, filter GrievanceFilter) ([]model.Grievance, int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.Grievance{})

	if filter.CaseID != nil {
		query = query.Where("case_id = ?", filter.CaseID)
	}
	if filter.CaseIDs != nil {
		query = query.Where("case_id IN ?", filter.CaseIDs)
	}
	if filter.CreatedByUserID != nil {
		query = query.Where("created_by_user_id = ?", filter.CreatedByUserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var grievances []model.Grievance
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&grievances).Error; err != nil {
		return nil, 0, err
	}

	return grievances, total, nil
}

func (r *grievanceRepository) Update(ctx context.Context, g *model.Grievance) error {
	return GetDB(ctx, r.db).Save(g).Error
}

func (r *grievanceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Grievance{}).Error
}

func (r *grievanceRepository) Count(ctx context.Context, filter GrievanceFilter) (int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.Grievance{})
	if filter.CaseIDs != nil {
		query = query.Where("case_id IN ?", filter.CaseIDs)
	}
	if filter.CreatedByUserID != nil {
		query = query.Where("created_by_user_id = ?", filter.CreatedByUserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	var total int64
	err := query.Count(&total).Error
	return total, err
}

func (r *grievanceRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := GetDB(ctx, r.db).
		Model(&model.Grievance{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error
	return counts, err
}

func (r *grievanceRepository) CountByPriority(ctx context.Context, priority string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.Grievance{}).
		Where("priority = ?", priority).
		Count(&count).Error
	return count, err
}
