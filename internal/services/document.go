package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/regdraft-backend/internal/data/repos"
	types "github.com/yungbote/regdraft-backend/internal/domain"
	"github.com/yungbote/regdraft-backend/internal/platform/apierr"
	"github.com/yungbote/regdraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/regdraft-backend/internal/platform/dbctx"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type CreateDocumentInput struct {
	DocumentType string `json:"document_type"`
	Filename     string `json:"filename"`
	StorageKey   string `json:"storage_key"`
	FileSize     int64  `json:"file_size"`
	MimeType     string `json:"mime_type"`
}

// DocumentService records supporting-document metadata. File bytes live in
// external storage and are referenced by StorageKey only.
type DocumentService interface {
	List(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.SupportingDocument, error)
	Create(dbc dbctx.Context, submissionID uuid.UUID, in CreateDocumentInput) (*types.SupportingDocument, error)
	RecordAIReview(dbc dbctx.Context, submissionID, docID uuid.UUID, summary string) error
	// Delete drops the metadata row. The stored object is left to the storage
	// lifecycle; its key is logged.
	Delete(dbc dbctx.Context, submissionID, docID uuid.UUID) error
}

type documentService struct {
	log         *logger.Logger
	submissions repos.SubmissionRepo
	documents   repos.SupportingDocumentRepo
}

func NewDocumentService(baseLog *logger.Logger, submissionRepo repos.SubmissionRepo, documentRepo repos.SupportingDocumentRepo) DocumentService {
	return &documentService{
		log:         baseLog.With("service", "DocumentService"),
		submissions: submissionRepo,
		documents:   documentRepo,
	}
}

func (s *documentService) List(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.SupportingDocument, error) {
	if _, err := s.submissions.GetByID(dbc, submissionID); err != nil {
		return nil, classify(err, "submission_not_found")
	}
	return s.documents.ListBySubmission(dbc, submissionID)
}

func (s *documentService) Create(dbc dbctx.Context, submissionID uuid.UUID, in CreateDocumentInput) (*types.SupportingDocument, error) {
	docType := strings.TrimSpace(in.DocumentType)
	filename := strings.TrimSpace(in.Filename)
	if docType == "" || filename == "" {
		return nil, apierr.BadRequest("invalid_document", fmt.Errorf("document_type and filename are required"))
	}
	if in.FileSize < 0 {
		return nil, apierr.BadRequest("invalid_document", fmt.Errorf("file_size cannot be negative"))
	}
	if _, err := s.submissions.GetByID(dbc, submissionID); err != nil {
		return nil, classify(err, "submission_not_found")
	}
	doc, err := s.documents.Create(dbc, &types.SupportingDocument{
		SubmissionID: submissionID,
		DocumentType: docType,
		Filename:     filename,
		StorageKey:   strings.TrimSpace(in.StorageKey),
		FileSize:     in.FileSize,
		MimeType:     strings.TrimSpace(in.MimeType),
		UploadedBy:   ctxutil.Actor(dbc.Ctx, ""),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Supporting document recorded", "submission_id", submissionID, "document_id", doc.ID, "type", docType)
	return doc, nil
}

func (s *documentService) RecordAIReview(dbc dbctx.Context, submissionID, docID uuid.UUID, summary string) error {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return apierr.BadRequest("missing_summary", fmt.Errorf("ai_review_summary is required"))
	}
	if err := s.documents.SetAIReview(dbc, submissionID, docID, summary); err != nil {
		return classify(err, "document_not_found")
	}
	return nil
}

func (s *documentService) Delete(dbc dbctx.Context, submissionID, docID uuid.UUID) error {
	doc, err := s.documents.Delete(dbc, submissionID, docID)
	if err != nil {
		return classify(err, "document_not_found")
	}
	s.log.Info("Supporting document deleted", "submission_id", submissionID, "document_id", docID, "storage_key", doc.StorageKey)
	return nil
}
