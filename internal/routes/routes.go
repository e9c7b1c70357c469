package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	handler "finance-ledger-backend/internal/handlers"
	"finance-ledger-backend/internal/repository"
	"finance-ledger-backend/internal/services/ingestion"
	"finance-ledger-backend/internal/services/reclassify"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, log zerolog.Logger) {
	transactionRepo := repository.NewTransactionRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	batchRepo := repository.NewImportBatchRepository(db)

	pipeline := ingestion.NewPipeline(transactionRepo, ruleRepo, categoryRepo, log)
	reclassifier := reclassify.NewService(transactionRepo, ruleRepo, log)

	importHandler := handler.NewImportHandler(pipeline, batchRepo, log)
	txHandler := handler.NewTransactionHandler(transactionRepo)
	ruleHandler := handler.NewRuleHandler(ruleRepo, reclassifier)
	categoryHandler := handler.NewCategoryHandler(categoryRepo)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	imports := api.Group("/import")
	imports.POST("", importHandler.Ingest)
	imports.POST("/upload", importHandler.Upload)
	imports.GET("/:batchId", importHandler.GetBatch)

	tx := api.Group("/transactions")
	tx.GET("", txHandler.List)
	tx.POST("", txHandler.Create)
	tx.PUT("/:id", txHandler.Update)
	tx.DELETE("/:id", txHandler.Delete)
	tx.POST("/bulk-category", txHandler.BulkCategory)

	rules := api.Group("/rules")
	rules.GET("", ruleHandler.List)
	rules.POST("", ruleHandler.Create)
	rules.PUT("/:id", ruleHandler.Update)
	rules.DELETE("/:id", ruleHandler.Delete)
	rules.POST("/apply", ruleHandler.Apply)

	categories := api.Group("/categories")
	categories.GET("", categoryHandler.List)
	categories.POST("", categoryHandler.Create)
	categories.PUT("/:id", categoryHandler.Rename)
	categories.DELETE("/:id", categoryHandler.Delete)
}
