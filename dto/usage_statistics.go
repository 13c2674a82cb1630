package dto

// DailyUsage captures aggregated usage metrics grouped by calendar day.
type DailyUsage struct {
	Day     string  `gorm:"column:day"`
	Credits float64 `gorm:"column:credits"`
	Calls   int64   `gorm:"column:calls"`
}

// ModelUsage captures aggregated usage metrics grouped by model and provider.
type ModelUsage struct {
	ModelName    string  `gorm:"column:model_name"`
	ProviderName string  `gorm:"column:provider_name"`
	Credits      float64 `gorm:"column:credits"`
	Calls        int64   `gorm:"column:calls"`
}
