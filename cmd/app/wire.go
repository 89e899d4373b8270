//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/faqstudio/backend/internal/bootstrap"
	"github.com/faqstudio/backend/internal/domain/catalog"
	"github.com/faqstudio/backend/internal/infra/config"
	httpiface "github.com/faqstudio/backend/internal/interface/http"
	"github.com/faqstudio/backend/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideCatalogConfig,
		provideEmbedder,
		provideEntryRepository,
		provideExportLog,
		provideVectorIndex,
		provideCategoryRegistry,
		provideCheckStats,
		provideSnapshotStore,
		provideReconciler,
		catalog.NewDetector,
		catalog.NewCoordinator,
		catalog.NewRepair,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
