package handler

import (
	"github.com/carelog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	units     *service.UnitService
	residents *service.ResidentService
	records   *service.RecordService
	snapshots *service.SnapshotService
	handovers *service.HandoverService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB) *API {
	recordService := service.NewRecordService(gdb)

	return &API{
		db:        gdb,
		units:     service.NewUnitService(gdb),
		residents: service.NewResidentService(gdb),
		records:   recordService,
		snapshots: service.NewSnapshotService(gdb),
		handovers: service.NewHandoverService(gdb, recordService),
	}
}
