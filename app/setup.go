package app

import (
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/api"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/config"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/database"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/router"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services/cron"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err

	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		print("If not running, run the following command:\n")
		print("  make docker-up   (for Docker setup)\n")
		print("  make db-up       (for local PostgreSQL)\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		print("Error running migrations:\n")
		return err
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return fmt.Errorf("failed to get GORM DB instance")
	}

	// Provider adapters and the service graph
	registry := router.BuildRegistry(getEnv)
	svcs := router.BuildServices(db, registry, getEnv)

	// Settlement archive is optional; without a bucket the archive cron job
	// logs a skip instead of running.
	var archive *services.ArchiveService
	if getEnv.ARCHIVE_BUCKET != "" {
		archive, err = services.NewArchiveService(db, services.ArchiveConfig{
			Bucket:    getEnv.ARCHIVE_BUCKET,
			Region:    getEnv.ARCHIVE_REGION,
			Endpoint:  getEnv.ARCHIVE_ENDPOINT,
			AccessKey: getEnv.ARCHIVE_ACCESS_KEY,
			SecretKey: getEnv.ARCHIVE_SECRET_KEY,
		})
		if err != nil {
			print("Warning: Failed to initialize settlement archive\n")
			print("Error: ", err.Error(), "\n")
		}
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" { // Default to enabled
		cronManager = cron.NewCronManager(db, svcs.Verification, archive)
		if err := cronManager.Start(); err != nil {
			print("Warning: Failed to start cron jobs\n")
			print("Error: ", err.Error(), "\n")
			// Don't fail the app, just log the warning
		}
	}

	// Defer Closing DB and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	// Init API
	var server *api.APIServer = api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Attach Middleware
	// Custom Logger
	app.Use(logger.New())

	app.Use(recover.New())

	// Setup Routes
	router.SetupRoutes(app, store, getEnv, svcs)

	// Get the PORT & Start the Server
	return server.Run()

}
