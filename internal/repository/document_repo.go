package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentRepository defines data access for uploaded case documents
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.CaseDocument) error
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]model.CaseDocument, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.CaseDocument) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *documentRepository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]model.CaseDocument, error) {
	var docs []model.CaseDocument
	err := GetDB(ctx, r.db).
		Where("case_id = ?", caseID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}
