package models

// CompanyIntegrationModel is one helpdesk integration row per company.
// DeskConfig is a JSON blob holding the Zoho Desk credentials; its shape is
// owned by the credentials package. Exactly one active row exists per company.
type CompanyIntegrationModel struct {
	ID         uint   `json:"id"          gorm:"primaryKey"`
	CompanyID  int    `json:"company_id"  gorm:"column:company_id;index;not null"`
	IsActive   bool   `json:"is_active"   gorm:"column:is_active;default:true"`
	DeskConfig string `json:"desk_config" gorm:"column:desk_config;type:longtext"`
}

func (CompanyIntegrationModel) TableName() string { return "company_integration" }
