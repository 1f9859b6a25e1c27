package services

import (
	"errors"

	"github.com/pmxy/gallery/internal/models"
	"gorm.io/gorm"
	"k8s.io/klog/v2"
)

// Audit actions
const (
	ActionCreateGallery = "create_gallery"
	ActionDeleteGallery = "delete_gallery"
	ActionAddImage      = "add_image"
	ActionRemoveImage   = "remove_image"
)

// ErrAuditDisabled is returned by queries when no audit database is configured.
var ErrAuditDisabled = errors.New("audit log disabled")

// AuditService records admin mutations. Entries always go to the log and,
// when a database is attached, into the audit_logs table.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService accepts a nil db for log-only auditing.
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

func (s *AuditService) Enabled() bool { return s != nil && s.db != nil }

// LogAction records one admin action. Storage failures are only logged.
func (s *AuditService) LogAction(entry models.AuditLog) {
	klog.Infof("audit: %s gallery=%q image=%q ip=%s", entry.Action, entry.Gallery, entry.Image, entry.IPAddress)
	if !s.Enabled() {
		return
	}
	if err := s.db.Create(&entry).Error; err != nil {
		klog.Errorf("audit: failed to store %s entry: %v", entry.Action, err)
	}
}

// Recent returns the newest entries first.
func (s *AuditService) Recent(limit int) ([]models.AuditLog, error) {
	if !s.Enabled() {
		return nil, ErrAuditDisabled
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var logs []models.AuditLog
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
