// internal/models/models_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplianceScore(t *testing.T) {
	items := []ChecklistItem{
		{Item: "Extinguishers charged", Category: ChecklistCategoryFireExtinguishers, Status: ComplianceStatusCompliant},
		{Item: "Exit signage", Category: ChecklistCategoryEmergencyExits, Status: ComplianceStatusCompliant},
		{Item: "Alarm panel", Category: ChecklistCategoryAlarms, Status: ComplianceStatusNonCompliant},
		{Item: "Wiring", Category: ChecklistCategoryElectrical, Status: ComplianceStatusCompliant},
	}

	score := ComplianceScore(items)
	require.NotNil(t, score)
	assert.Equal(t, 75, *score)

	assert.Nil(t, ComplianceScore(nil))

	third := ComplianceScore(items[1:])
	require.NotNil(t, third)
	assert.Equal(t, 67, *third)
}

func TestNeedsRenewalReminder(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	license := &License{Status: LicenseStatusActive, ValidUntil: now.AddDate(0, 0, 20)}

	assert.True(t, license.NeedsRenewalReminder(now, 30))
	assert.False(t, license.NeedsRenewalReminder(now, 10))

	license.ReminderSent = true
	assert.False(t, license.NeedsRenewalReminder(now, 30))

	license.ReminderSent = false
	license.Status = LicenseStatusSuspended
	assert.False(t, license.NeedsRenewalReminder(now, 30))

	license.Status = LicenseStatusActive
	license.ValidUntil = now.Add(-time.Hour)
	assert.False(t, license.NeedsRenewalReminder(now, 30))
}

func TestDaysUntilExpiryRoundsUp(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	license := &License{ValidUntil: now.Add(36 * time.Hour)}

	assert.Equal(t, 2, license.DaysUntilExpiry(now))
}

func TestApplicationIsClosed(t *testing.T) {
	app := &Application{Status: ApplicationStatusUnderReview}
	assert.False(t, app.IsClosed())

	app.Status = ApplicationStatusLicenseIssued
	assert.True(t, app.IsClosed())
}

func TestApplicationStatusValid(t *testing.T) {
	assert.True(t, ApplicationStatusFollowUpCompleted.Valid())
	assert.False(t, ApplicationStatus("archived").Valid())
}
