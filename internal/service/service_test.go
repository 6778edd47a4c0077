package service

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sitrack/sitrack-gin/internal/auth"
	"github.com/sitrack/sitrack-gin/internal/model"
	"github.com/sitrack/sitrack-gin/internal/notify"
	"github.com/sitrack/sitrack-gin/internal/repository"
	"github.com/sitrack/sitrack-gin/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db       *gorm.DB
	users    repository.UserRepository
	reports  repository.ReportRepository
	store    *store.Store
	reportSv *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Report{},
		&model.TaskAssignment{},
		&model.WorkflowEntry{},
		&model.FileAttachment{},
		&model.Snapshot{},
	))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	users := repository.NewUserRepository(db)
	reports := repository.NewReportRepository(db)
	st := store.New(nil, log)

	return &fixture{
		db:       db,
		users:    users,
		reports:  reports,
		store:    st,
		reportSv: NewReportService(reports, st, nil, notify.New(log)),
	}
}

func createSampleReport(t *testing.T, f *fixture) *model.Report {
	t.Helper()
	report, err := f.reportSv.Create(CreateReportRequest{
		NoSurat:       "001/SDM/2025",
		Hal:           "Perpanjangan Kontrak PPPK",
		Layanan:       "Layanan Perpanjangan Hubungan Kerja PPPK",
		Dari:          "Bagian Kepegawaian",
		TanggalSurat:  "2025-01-15",
		TanggalAgenda: "2025-01-16",
		Koordinator:   "Suwarti, S.H",
	}, "TU Staff")
	require.NoError(t, err)
	return report
}

func TestCreateReport(t *testing.T) {
	f := newFixture(t)

	report := createSampleReport(t, f)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, model.StatusDalamProses, report.Status)
	assert.Zero(t, report.Progress)
	assert.Equal(t, "Suwarti, S.H", report.CurrentHolder)

	// Registration and forwarding both leave an audit line.
	require.Len(t, report.Workflow, 2)
	assert.Equal(t, "Dibuat oleh TU Staff", report.Workflow[0].Action)
	assert.Equal(t, "Diteruskan ke Koordinator", report.Workflow[1].Action)

	// Persisted and mirrored into the session store.
	saved, err := f.reportSv.Get(report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.NoSurat, saved.NoSurat)
	require.NotNil(t, f.store.FindReport(report.ID))
}

func TestCreateReportValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.reportSv.Create(CreateReportRequest{NoSurat: "x"}, "TU Staff")
	assert.Error(t, err)
}

func TestAssignUpdateCompleteLifecycle(t *testing.T) {
	f := newFixture(t)
	report := createSampleReport(t, f)

	report, err := f.reportSv.AssignStaff(report.ID, AssignStaffRequest{
		StaffName: "Roza Erlinda",
		TodoList:  []string{"Jadwalkan/Agendakan", "Bahas dengan saya", "Untuk ditindaklanjuti"},
		Notes:     "Verifikasi dokumen",
	}, "Suwarti, S.H")
	require.NoError(t, err)

	require.Len(t, report.Assignments, 1)
	assignment := report.Assignments[0]
	assert.Equal(t, model.AssignmentInProgress, assignment.Status)
	assert.Equal(t, "Roza Erlinda", report.CurrentHolder)
	assert.Equal(t, model.StringList{"Roza Erlinda"}, report.AssignedStaff)
	assert.Zero(t, report.Progress, "in-progress work must not move the report")

	// Ticking to-dos moves the assignment percentage only.
	report, err = f.reportSv.UpdateAssignment(report.ID, assignment.ID, UpdateAssignmentRequest{
		CompletedTasks: []string{"Jadwalkan/Agendakan", "not-on-the-list"},
	})
	require.NoError(t, err)
	got := report.FindAssignment(assignment.ID)
	assert.Equal(t, model.StringList{"Jadwalkan/Agendakan"}, got.CompletedTasks)
	assert.Equal(t, 33, got.Progress)
	assert.Zero(t, report.Progress)
	assert.Equal(t, model.StatusDalamProses, report.Status)

	// Completing the only assignment finishes the report.
	report, err = f.reportSv.UpdateAssignment(report.ID, assignment.ID, UpdateAssignmentRequest{Completed: true})
	require.NoError(t, err)
	assert.Equal(t, 100, report.Progress)
	assert.Equal(t, model.StatusSelesai, report.Status)
	assert.Equal(t, "Tata Usaha", report.CurrentHolder)
	assert.Equal(t, "Tugas diselesaikan: Roza Erlinda", report.Workflow[len(report.Workflow)-1].Action)
}

func TestReassignSameStaffReplaces(t *testing.T) {
	f := newFixture(t)
	report := createSampleReport(t, f)

	report, err := f.reportSv.AssignStaff(report.ID, AssignStaffRequest{
		StaffName: "Roza Erlinda",
		TodoList:  []string{"a"},
	}, "Suwarti, S.H")
	require.NoError(t, err)

	report, err = f.reportSv.AssignStaff(report.ID, AssignStaffRequest{
		StaffName: "Roza Erlinda",
		TodoList:  []string{"a", "b"},
	}, "Suwarti, S.H")
	require.NoError(t, err)

	require.Len(t, report.Assignments, 1)
	assert.Equal(t, model.StringList{"a", "b"}, report.Assignments[0].TodoList)
	assert.Equal(t, model.StringList{"Roza Erlinda"}, report.AssignedStaff)
}

func TestRequestRevisionReopensReport(t *testing.T) {
	f := newFixture(t)
	report := createSampleReport(t, f)

	report, err := f.reportSv.AssignStaff(report.ID, AssignStaffRequest{
		StaffName: "Roza Erlinda",
		TodoList:  []string{"a"},
	}, "Suwarti, S.H")
	require.NoError(t, err)

	report, err = f.reportSv.UpdateAssignment(report.ID, report.Assignments[0].ID, UpdateAssignmentRequest{Completed: true})
	require.NoError(t, err)
	require.Equal(t, model.StatusSelesai, report.Status)

	report, err = f.reportSv.RequestRevision(report.ID, RevisionRequest{
		StaffName:     "Roza Erlinda",
		RevisionNotes: "Lengkapi lampiran",
	}, "Suwarti, S.H")
	require.NoError(t, err)

	assignment := report.Assignments[0]
	assert.Equal(t, model.AssignmentRevisionRequested, assignment.Status)
	assert.Equal(t, "Lengkapi lampiran", assignment.RevisionNotes)
	require.NotNil(t, assignment.RevisionRequestedAt)

	assert.Equal(t, model.StatusDalamProses, report.Status)
	assert.Zero(t, report.Progress)
	assert.Equal(t, "Roza Erlinda", report.CurrentHolder)
	assert.Equal(t, "Revisi diminta untuk Roza Erlinda", report.Workflow[len(report.Workflow)-1].Action)
}

func TestRequestRevisionUnknownStaff(t *testing.T) {
	f := newFixture(t)
	report := createSampleReport(t, f)

	_, err := f.reportSv.RequestRevision(report.ID, RevisionRequest{
		StaffName:     "Nobody",
		RevisionNotes: "x",
	}, "Suwarti, S.H")
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestDeleteReport(t *testing.T) {
	f := newFixture(t)
	report := createSampleReport(t, f)

	require.NoError(t, f.reportSv.Delete(report.ID))

	_, err := f.reportSv.Get(report.ID)
	assert.ErrorIs(t, err, ErrReportNotFound)
	assert.Nil(t, f.store.FindReport(report.ID))

	assert.ErrorIs(t, f.reportSv.Delete(report.ID), ErrReportNotFound)
}

func TestAuthServiceLogin(t *testing.T) {
	f := newFixture(t)

	hash, err := auth.HashPassword("admin123", 4)
	require.NoError(t, err)
	require.NoError(t, f.users.Save(&model.User{
		ID:       "admin1",
		Name:     "Administrator",
		Role:     model.RoleAdmin,
		Password: hash,
	}))

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	svc := NewAuthService(f.users, issuer, f.store)

	result, err := svc.Login(LoginRequest{Name: "Administrator", Password: "admin123"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Empty(t, result.User.Password, "hash must not leave the service")
	assert.True(t, f.store.State().IsAuthenticated)

	claims, err := issuer.Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin1", claims.UserID)
	assert.Equal(t, model.RoleAdmin, claims.Role)

	_, err = svc.Login(LoginRequest{Name: "Administrator", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(LoginRequest{Name: "Ghost", Password: "admin123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	svc.Logout()
	assert.False(t, f.store.State().IsAuthenticated)
}

func TestUserServiceLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.store, 4)

	created, err := svc.Create(CreateUserRequest{
		Name:     "Roza Erlinda",
		Role:     model.RoleStaff,
		Password: "rahasia",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Empty(t, created.Password)

	// Stored hash verifies, plaintext is gone.
	stored, err := f.users.FindByID(created.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(stored.Password, "rahasia"))

	updated, err := svc.Update(created.ID, UpdateUserRequest{Role: model.RoleKoordinator})
	require.NoError(t, err)
	assert.Equal(t, model.RoleKoordinator, updated.Role)
	assert.Equal(t, "Roza Erlinda", updated.Name)

	// Same id again upserts instead of duplicating.
	_, err = svc.Create(CreateUserRequest{
		ID:       created.ID,
		Name:     "Roza E.",
		Role:     model.RoleStaff,
		Password: "baru",
	})
	require.NoError(t, err)
	all, err := svc.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, "Roza E.", all[0].Name)

	_, err = svc.Create(CreateUserRequest{Name: "x", Role: "Boss", Password: "p"})
	assert.Error(t, err)

	_, err = svc.Update("missing", UpdateUserRequest{Name: "y"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, svc.Delete(created.ID))
	all, err = svc.List()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTrackingService(t *testing.T) {
	f := newFixture(t)
	report := createSampleReport(t, f)

	_, err := f.reportSv.AssignStaff(report.ID, AssignStaffRequest{
		StaffName: "Roza Erlinda",
		TodoList:  []string{"a"},
		Notes:     "Verifikasi dokumen",
	}, "Suwarti, S.H")
	require.NoError(t, err)

	svc := NewTrackingService(f.reports)
	svc.now = func() time.Time { return time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC) }

	// Case-insensitive partial match on the letter number.
	result, err := svc.Track("001/sdm")
	require.NoError(t, err)
	assert.Equal(t, report.ID, result.ID)
	assert.Equal(t, "Dalam Proses", result.Status)
	assert.Equal(t, "Tata Usaha", result.CurrentLocation)
	assert.Equal(t, "25/01/2025", result.EstimatedCompletion)

	require.Len(t, result.Timeline, 5)
	assert.Equal(t, "completed", result.Timeline[0].Status)
	assert.Equal(t, "in-progress", result.Timeline[1].Status)
	assert.Equal(t, "Verifikasi dokumen", result.Timeline[2].Notes)
	assert.Equal(t, "pending", result.Timeline[4].Status)

	// Subject matching works too.
	bySubject, err := svc.Track("kontrak pppk")
	require.NoError(t, err)
	assert.Equal(t, report.ID, bySubject.ID)

	_, err = svc.Track("tidak-ada")
	assert.ErrorIs(t, err, ErrReportNotFound)

	_, err = svc.Track("   ")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestTrackingCompletedReport(t *testing.T) {
	f := newFixture(t)
	report := createSampleReport(t, f)

	report, err := f.reportSv.AssignStaff(report.ID, AssignStaffRequest{
		StaffName: "Roza Erlinda",
		TodoList:  []string{"a"},
	}, "Suwarti, S.H")
	require.NoError(t, err)
	_, err = f.reportSv.UpdateAssignment(report.ID, report.Assignments[0].ID, UpdateAssignmentRequest{Completed: true})
	require.NoError(t, err)

	svc := NewTrackingService(f.reports)
	result, err := svc.Track(report.ID)
	require.NoError(t, err)

	assert.Equal(t, 100, result.Progress)
	assert.Equal(t, "Selesai", result.Status)
	assert.Equal(t, "Selesai - Siap Diambil", result.CurrentLocation)
	assert.Equal(t, "Sudah Selesai", result.EstimatedCompletion)
	for _, step := range result.Timeline {
		assert.Equal(t, "completed", step.Status)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	f := newFixture(t)
	report := createSampleReport(t, f)
	require.NoError(t, f.users.Save(&model.User{ID: "u1", Name: "Admin", Role: model.RoleAdmin}))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := NewBackupService(f.users, f.reports, t.TempDir(), log)

	info, err := svc.Create(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, info.Size)

	backups, err := svc.List()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, info.Filename, backups[0].Filename)

	// Wipe and restore.
	require.NoError(t, f.reportSv.Delete(report.ID))
	require.NoError(t, f.users.Delete("u1"))

	require.NoError(t, svc.Restore(context.Background(), info.Filename))

	restored, err := f.reportSv.Get(report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.NoSurat, restored.NoSurat)
	user, err := f.users.FindByID("u1")
	require.NoError(t, err)
	assert.Equal(t, "Admin", user.Name)

	require.NoError(t, svc.Delete(info.Filename))
	assert.ErrorIs(t, svc.Delete(info.Filename), ErrBackupNotFound)
	assert.ErrorIs(t, svc.Restore(context.Background(), "../../etc/passwd"), ErrBackupNotFound)
}
