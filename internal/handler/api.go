package handler

import (
	"github.com/habitlog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	habits    *service.HabitService
	analytics *service.AnalyticsService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, habits *service.HabitService, analytics *service.AnalyticsService) *API {
	return &API{
		db:        db,
		habits:    habits,
		analytics: analytics,
	}
}

// DB exposes the underlying gorm instance for the login flow.
func (a *API) DB() *gorm.DB {
	return a.db
}
