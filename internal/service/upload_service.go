package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/sitrack/sitrack-gin/internal/model"
	"github.com/sitrack/sitrack-gin/internal/storage"
)

// UploadService stores report attachments in object storage and
// records them against the report.
type UploadService struct {
	objects storage.ObjectStorage
	reports *ReportService
	prefix  string
	now     func() time.Time
}

func NewUploadService(objects storage.ObjectStorage, reports *ReportService, prefix string) *UploadService {
	return &UploadService{
		objects: objects,
		reports: reports,
		prefix:  prefix,
		now:     time.Now,
	}
}

// Store uploads the file and attaches it to the report. Validation of
// presence and size limits happens at the HTTP layer; this only fails
// on storage or persistence errors.
func (s *UploadService) Store(ctx context.Context, reportID, uploadedBy string, header *multipart.FileHeader) (*model.FileAttachment, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	key := storage.ObjectKey(s.prefix, reportID, header.Filename)
	url, err := s.objects.Put(ctx, key, file, header.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	attachment := model.FileAttachment{
		ID:         uuid.New().String(),
		ReportID:   reportID,
		FileName:   header.Filename,
		FileURL:    url,
		UploadedAt: s.now(),
		UploadedBy: uploadedBy,
		Type:       model.AttachmentTypeOriginal,
	}

	if err := s.reports.AttachFile(reportID, attachment); err != nil {
		// The object is already up; roll it back so attachments and
		// bucket contents stay consistent.
		_ = s.objects.Delete(ctx, key)
		return nil, err
	}

	return &attachment, nil
}
