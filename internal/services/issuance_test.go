// internal/services/issuance_test.go
package services

import (
	"errors"
	"time"

	"github.com/javajoker/firenoc-backend/internal/apperrors"
	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/notify"
	"github.com/javajoker/firenoc-backend/internal/store"
)

func (s *ServicesTestSuite) issueNOC(app *models.Application) *models.Certificate {
	noc, err := s.nocs.IssueNOC(s.ctx, IssueNOCRequest{
		ApplicationID: app.ID,
		NOCType:       models.NOCTypeOccupancy,
		Conditions:    []string{"Maintain extinguishers"},
	}, s.officer)
	s.Require().NoError(err)
	return noc
}

func (s *ServicesTestSuite) issueLicense(app *models.Application) *models.License {
	license, err := s.licenses.IssueLicense(s.ctx, IssueLicenseRequest{ApplicationID: app.ID}, s.officer)
	s.Require().NoError(err)
	return license
}

func (s *ServicesTestSuite) TestIssueNOCRequiresCompletedInspection() {
	app := s.submit()

	_, err := s.nocs.IssueNOC(s.ctx, IssueNOCRequest{ApplicationID: app.ID}, s.officer)
	s.True(errors.Is(err, apperrors.ErrPreconditionFailed))
	s.Nil(s.reload(app.ID).NOCID)
}

func (s *ServicesTestSuite) TestIssueNOCAfterInspection() {
	app := s.inspected()

	noc := s.issueNOC(app)

	s.Equal("NOC2025000001", noc.NOCNumber)
	s.Equal(models.CertificateStatusActive, noc.Status)
	s.Equal(s.applicant, noc.ApplicantID)
	s.Equal(time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC), noc.ValidUntil)
	s.Equal("Lakeview Towers", noc.PropertyDetails.Data().PropertyName)

	got := s.reload(app.ID)
	s.Equal(models.ApplicationStatusNOCIssued, got.Status)
	s.Require().NotNil(got.NOCID)
	s.Equal(noc.ID, *got.NOCID)
	last, _ := got.LastTimelineEntry()
	s.Equal("NOC issued: NOC2025000001", last.Remarks)
	s.Len(s.dispatcher.ofKind(notify.KindNOCIssued), 1)
}

func (s *ServicesTestSuite) TestIssueNOCFromApproved() {
	_, inspection := s.scheduled()
	app := s.complete(inspection, true)
	_, err := s.applications.UpdateFollowUp(s.ctx, app.ID, FollowUpRequest{Completed: true}, s.officer)
	s.Require().NoError(err)

	noc := s.issueNOC(app)
	s.Equal(noc.ID, *s.reload(app.ID).NOCID)
}

func (s *ServicesTestSuite) TestIssueNOCTwiceConflicts() {
	app := s.inspected()
	s.issueNOC(app)

	_, err := s.nocs.IssueNOC(s.ctx, IssueNOCRequest{ApplicationID: app.ID}, s.officer)
	s.True(errors.Is(err, apperrors.ErrConflict))

	_, total, err := s.nocs.ListNOCs(s.ctx, store.CertificateFilter{ApplicantID: &s.applicant}, store.All)
	s.Require().NoError(err)
	s.EqualValues(1, total)
}

func (s *ServicesTestSuite) TestRevokeAndSuspendNOC() {
	noc := s.issueNOC(s.inspected())

	suspended, err := s.nocs.SuspendNOC(s.ctx, noc.ID, "Blocked exit", s.officer)
	s.Require().NoError(err)
	s.Equal(models.CertificateStatusSuspended, suspended.Status)

	_, err = s.nocs.SuspendNOC(s.ctx, noc.ID, "again", s.officer)
	s.True(errors.Is(err, apperrors.ErrPreconditionFailed))

	revoked, err := s.nocs.RevokeNOC(s.ctx, noc.ID, "Unsafe wiring", s.officer)
	s.Require().NoError(err)
	s.Equal(models.CertificateStatusRevoked, revoked.Status)
	s.Equal("Unsafe wiring", revoked.Remarks)

	notes := s.dispatcher.ofKind(notify.KindNOCRevoked)
	s.Require().Len(notes, 1)
	s.Contains(notes[0].Message, "Unsafe wiring")

	_, err = s.nocs.RevokeNOC(s.ctx, noc.ID, "again", s.officer)
	s.True(errors.Is(err, apperrors.ErrPreconditionFailed))
}

func (s *ServicesTestSuite) TestIssueLicenseRequiresNOC() {
	app := s.inspected()

	_, err := s.licenses.IssueLicense(s.ctx, IssueLicenseRequest{ApplicationID: app.ID}, s.officer)
	s.True(errors.Is(err, apperrors.ErrPreconditionFailed))
	s.Nil(s.reload(app.ID).LicenseID)
}

func (s *ServicesTestSuite) TestIssueLicenseRequiresActiveNOC() {
	app := s.inspected()
	noc := s.issueNOC(app)
	_, err := s.nocs.RevokeNOC(s.ctx, noc.ID, "revoked", s.officer)
	s.Require().NoError(err)

	_, err = s.licenses.IssueLicense(s.ctx, IssueLicenseRequest{ApplicationID: app.ID}, s.officer)
	s.True(errors.Is(err, apperrors.ErrPreconditionFailed))
}

func (s *ServicesTestSuite) TestIssueLicenseAfterNOC() {
	app := s.inspected()
	s.issueNOC(app)

	license := s.issueLicense(app)

	s.Equal("LIC2025000001", license.LicenseNumber)
	s.Equal(models.LicenseTypeFireSafety, license.LicenseType)
	s.Equal(models.LicenseStatusActive, license.Status)
	s.Equal(s.now(), license.ValidFrom)
	s.Equal(time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC), license.ValidUntil)
	s.Equal(models.PaymentStatusPaid, license.Fees.PaymentStatus)
	s.Require().NotNil(license.Fees.PaymentDate)

	got := s.reload(app.ID)
	s.Equal(models.ApplicationStatusLicenseIssued, got.Status)
	s.Equal(license.ID, *got.LicenseID)
	s.Len(s.dispatcher.ofKind(notify.KindLicenseIssued), 1)

	_, err := s.licenses.IssueLicense(s.ctx, IssueLicenseRequest{ApplicationID: app.ID}, s.officer)
	s.True(errors.Is(err, apperrors.ErrConflict))
}

func (s *ServicesTestSuite) TestRenewLicenseExtendsFromExpiry() {
	app := s.inspected()
	s.issueNOC(app)
	license := s.issueLicense(app)

	_, err := s.store.UpdateLicense(s.ctx, license.ID, func(l *models.License) error {
		l.ValidUntil = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		l.ReminderSent = true
		return nil
	})
	s.Require().NoError(err)

	renewed, err := s.licenses.RenewLicense(s.ctx, license.ID, RenewLicenseRequest{ValidityYears: 2}, s.officer)
	s.Require().NoError(err)

	s.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), renewed.ValidUntil)
	s.False(renewed.ReminderSent)
	s.Equal(models.LicenseStatusActive, renewed.Status)
	s.Require().Len(renewed.RenewalHistory, 1)
	s.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), renewed.RenewalHistory[0].PreviousExpiry)
	s.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), renewed.RenewalHistory[0].NewExpiry)
	s.Equal(s.officer, renewed.RenewalHistory[0].RenewedBy)
}

func (s *ServicesTestSuite) TestRenewRevokedLicenseFails() {
	app := s.inspected()
	s.issueNOC(app)
	license := s.issueLicense(app)

	_, err := s.licenses.RevokeLicense(s.ctx, license.ID, "Fraudulent documents", s.officer)
	s.Require().NoError(err)
	s.Len(s.dispatcher.ofKind(notify.KindLicenseRevoked), 1)

	_, err = s.licenses.RenewLicense(s.ctx, license.ID, RenewLicenseRequest{}, s.officer)
	s.True(errors.Is(err, apperrors.ErrPreconditionFailed))
}

func (s *ServicesTestSuite) TestVerifyLicense() {
	app := s.inspected()
	s.issueNOC(app)
	license := s.issueLicense(app)

	s.clock.Step(300 * day)
	result, err := s.licenses.VerifyLicense(s.ctx, license.ID)
	s.Require().NoError(err)
	s.True(result.Valid)
	s.Equal("2026-06-02", result.ValidUntil)
	s.Equal(65, result.DaysUntilExpiry)

	s.clock.Step(100 * day)
	result, err = s.licenses.VerifyLicense(s.ctx, license.ID)
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Zero(result.DaysUntilExpiry)
	s.Equal(models.LicenseStatusActive, result.Status)

	suspended, err := s.licenses.SuspendLicense(s.ctx, license.ID, "Audit", s.officer)
	s.Require().NoError(err)
	s.Equal(models.LicenseStatusSuspended, suspended.Status)
}
