// internal/models/user.go
package models

// User is the local view of a directory account. Credentials live with the
// identity provider that issues access tokens.
type User struct {
	BaseModel
	Name        string   `json:"name" gorm:"size:100;not null"`
	Email       string   `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Phone       string   `json:"phone,omitempty" gorm:"size:20"`
	Role        UserRole `json:"role" gorm:"type:varchar(20);not null;default:'citizen';index"`
	IsActive    bool     `json:"is_active" gorm:"not null;index"`
	NotifyInApp bool     `json:"notify_in_app" gorm:"not null"`
	NotifyEmail bool     `json:"notify_email" gorm:"not null"`
}
