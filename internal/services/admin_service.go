// internal/services/admin_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/utils"
)

// AdminService serves the read-only reporting queries of the admin
// console. Workflow changes never go through it.
type AdminService struct {
	db *gorm.DB
}

type AdminDashboardStats struct {
	ApplicationsByStatus map[string]int64 `json:"applications_by_status"`
	OverdueApplications  int64            `json:"overdue_applications"`
	UnassignedOpen       int64            `json:"unassigned_open"`
	ActiveNOCs           int64            `json:"active_nocs"`
	ActiveLicenses       int64            `json:"active_licenses"`
	LicensesExpiringSoon int64            `json:"licenses_expiring_soon"`
	NewThisMonth         int64            `json:"new_this_month"`
	ApplicationGrowth    float64          `json:"application_growth"`
}

type AuditLogFilter struct {
	utils.PaginationParams
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
	Action       string     `json:"action,omitempty"`
	CreatedAfter *time.Time `json:"created_after,omitempty"`
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// Dashboard Statistics
func (s *AdminService) GetDashboardStats(ctx context.Context, now time.Time, reminderDays int) (*AdminDashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &AdminDashboardStats{ApplicationsByStatus: map[string]int64{}}
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&models.Application{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to count applications by status: %w", err)
	}
	for _, row := range byStatus {
		stats.ApplicationsByStatus[row.Status] = row.Count
	}

	// Application statistics
	db.Model(&models.Application{}).Where("is_overdue = ?", true).Count(&stats.OverdueApplications)
	db.Model(&models.Application{}).
		Where("assigned_to IS NULL AND status NOT IN ?", models.ClosedApplicationStatuses).
		Count(&stats.UnassignedOpen)
	db.Model(&models.Application{}).Where("created_at >= ?", monthStart).Count(&stats.NewThisMonth)

	// Certificate and license statistics
	db.Model(&models.Certificate{}).Where("status = ?", models.CertificateStatusActive).Count(&stats.ActiveNOCs)
	db.Model(&models.License{}).Where("status = ?", models.LicenseStatusActive).Count(&stats.ActiveLicenses)
	db.Model(&models.License{}).
		Where("status = ? AND valid_until BETWEEN ? AND ?", models.LicenseStatusActive, now, now.AddDate(0, 0, reminderDays)).
		Count(&stats.LicensesExpiringSoon)

	// Growth calculations
	var lastMonth int64
	db.Model(&models.Application{}).
		Where("created_at >= ? AND created_at < ?", lastMonthStart, monthStart).
		Count(&lastMonth)
	if lastMonth > 0 {
		stats.ApplicationGrowth = float64(stats.NewThisMonth-lastMonth) / float64(lastMonth) * 100
	}

	return stats, nil
}

// Audit trail
func (s *AdminService) GetAuditLogs(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	allowedSortFields := []string{"created_at", "action", "resource_type", "status_code"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	return logs, total, nil
}
