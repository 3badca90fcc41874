// internal/config/database.go
package config

import (
	"fmt"
)

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// Addr is the SMTP dial address, used in log fields.
func (e *EmailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", e.SMTPHost, e.SMTPPort)
}

// Configured reports whether enough settings exist to send mail.
func (e *EmailConfig) Configured() bool {
	return e.SMTPHost != "" && e.FromEmail != ""
}
