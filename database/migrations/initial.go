package migrations

import (
	"github.com/shashiranjanraj/carby/app/models"
	"github.com/shashiranjanraj/carby/pkg/migration"
	"github.com/shashiranjanraj/carby/pkg/queue"
	"gorm.io/gorm"
)

func init() {
	migration.Register("20260101000000_create_users_table", &CreateUsersTable{})
	migration.Register("20260101000001_create_cars_table", &CreateCarsTable{})
	migration.Register("20260101000002_create_configurations_table", &CreateConfigurationsTable{})
	migration.Register("20260101000003_create_orders_table", &CreateOrdersTable{})
	migration.Register("20260101000004_create_failed_jobs_table", &CreateFailedJobsTable{})
}

// -------- 0001: users --------

type CreateUsersTable struct{}

func (m *CreateUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}

func (m *CreateUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("users")
}

// -------- 0002: cars --------

type CreateCarsTable struct{}

func (m *CreateCarsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Car{})
}

func (m *CreateCarsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("cars")
}

// -------- 0003: configurations --------

type CreateConfigurationsTable struct{}

func (m *CreateConfigurationsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Configuration{})
}

func (m *CreateConfigurationsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("configurations")
}

// -------- 0004: orders --------

type CreateOrdersTable struct{}

func (m *CreateOrdersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Order{})
}

func (m *CreateOrdersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("orders")
}

// -------- 0005: failed_jobs --------

type CreateFailedJobsTable struct{}

func (m *CreateFailedJobsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&queue.FailedJobRecord{})
}

func (m *CreateFailedJobsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(queue.FailedJobRecord{}.TableName())
}
