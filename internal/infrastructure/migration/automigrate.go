package migration

import (
	"metergate/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.OrganizationModel{},
		&models.PlanModel{},
		&models.PlanChangeModel{},
		&models.UsageRecordModel{},
		&models.ConcurrentGaugeModel{},
		&models.AlertModel{},
		&models.NotificationConfigModel{},
		&models.CustomRuleModel{},
		&models.FeedItemModel{},
	}
}
