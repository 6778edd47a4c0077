package repository

import (
	"strings"

	"github.com/sitrack/sitrack-gin/internal/model"
	"gorm.io/gorm"
)

// ReportRepository persists reports with their assignments, workflow
// history and attachments.
type ReportRepository interface {
	Save(report *model.Report) error
	FindByID(id string) (*model.Report, error)
	FindAll() ([]*model.Report, error)
	FindByFilter(filter *ReportFilter) ([]*model.Report, error)
	Search(term string) (*model.Report, error)
	Delete(id string) error
	SaveAssignment(assignment *model.TaskAssignment) error
	AppendWorkflow(entry *model.WorkflowEntry) error
	SaveAttachment(attachment *model.FileAttachment) error
}

// ReportFilter narrows report queries.
type ReportFilter struct {
	Status    *string
	Dari      *string
	Holder    *string
	StartDate *string
	EndDate   *string
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a gorm-backed report repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Save upserts the report and its owned rows.
func (r *reportRepository) Save(report *model.Report) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(report).Error
}

func (r *reportRepository) FindByID(id string) (*model.Report, error) {
	var report model.Report
	err := r.db.
		Preload("Assignments").
		Preload("Workflow", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp ASC") }).
		Preload("OriginalFiles").
		Where("id = ?", id).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) FindAll() ([]*model.Report, error) {
	var reports []*model.Report
	err := r.db.
		Preload("Assignments").
		Preload("Workflow", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp ASC") }).
		Preload("OriginalFiles").
		Order("created_at DESC").
		Find(&reports).Error
	return reports, err
}

func (r *reportRepository) FindByFilter(filter *ReportFilter) ([]*model.Report, error) {
	query := r.db.Model(&model.Report{}).
		Preload("Assignments").
		Preload("Workflow").
		Preload("OriginalFiles")

	if filter != nil {
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.Dari != nil {
			query = query.Where("dari = ?", *filter.Dari)
		}
		if filter.Holder != nil {
			query = query.Where("current_holder = ?", *filter.Holder)
		}
		if filter.StartDate != nil {
			query = query.Where("tanggal_surat >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			query = query.Where("tanggal_surat <= ?", *filter.EndDate)
		}
	}

	var reports []*model.Report
	err := query.Order("created_at DESC").Find(&reports).Error
	return reports, err
}

// Search finds the first report matching the term against the letter
// number, the subject or the id, case-insensitive and partial.
func (r *reportRepository) Search(term string) (*model.Report, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"

	var report model.Report
	err := r.db.
		Preload("Assignments").
		Preload("Workflow", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp ASC") }).
		Preload("OriginalFiles").
		Where("LOWER(no_surat) LIKE ? OR LOWER(hal) LIKE ? OR LOWER(id) LIKE ?", pattern, pattern, pattern).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Delete hard-deletes the report and everything it owns. Admin only.
func (r *reportRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", id).Delete(&model.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("report_id = ?", id).Delete(&model.WorkflowEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("report_id = ?", id).Delete(&model.FileAttachment{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Report{}).Error
	})
}

func (r *reportRepository) SaveAssignment(assignment *model.TaskAssignment) error {
	return r.db.Save(assignment).Error
}

func (r *reportRepository) AppendWorkflow(entry *model.WorkflowEntry) error {
	return r.db.Create(entry).Error
}

func (r *reportRepository) SaveAttachment(attachment *model.FileAttachment) error {
	return r.db.Save(attachment).Error
}
