package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "paperbase/internal/app"
	"paperbase/internal/bootstrap"
	"paperbase/internal/platform/rabbitmq"
	"paperbase/internal/repository"
	"paperbase/internal/transport/http/handler"
	"paperbase/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)
	pageRepo := repository.NewPageRepository(app.MySQL)
	chunkRepo := repository.NewChunkRepository(app.MySQL)
	embeddingRepo := repository.NewEmbeddingRepository(app.MySQL)
	tagRepo := repository.NewTagRepository(app.MySQL)
	noteRepo := repository.NewNoteRepository(app.MySQL)

	eventPublisher := rabbitmq.NewEventPublisher(app.MQConn, app.Config.RabbitMQ.DocumentEventQueue)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	ingestService := appsvc.NewIngestService(
		docRepo,
		pageRepo,
		chunkRepo,
		embeddingRepo,
		app.Embedder,
		app.Index,
		eventPublisher,
		app.Config.Search.ChunkSize,
		app.Config.Search.ChunkOverlap,
	)
	searchService := appsvc.NewSearchService(
		docRepo,
		pageRepo,
		tagRepo,
		app.Embedder,
		app.Index,
		app.SearchCache,
		app.Config.Search.DefaultLimit,
	)
	documentService := appsvc.NewDocumentService(
		docRepo,
		pageRepo,
		chunkRepo,
		embeddingRepo,
		tagRepo,
		noteRepo,
		app.Index,
		eventPublisher,
	)
	noteService := appsvc.NewNoteService(noteRepo, docRepo, tagRepo)

	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(
		ingestService,
		documentService,
		app.Config.Storage.Dir,
		app.Config.MaxUploadBytes(),
	)
	searchHandler := handler.NewSearchHandler(searchService)
	noteHandler := handler.NewNoteHandler(noteService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	api := v1.Group("")
	api.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))

	api.POST("/documents", documentHandler.Upload)
	api.POST("/documents/pages", documentHandler.IngestPages)
	api.GET("/documents", documentHandler.List)
	api.GET("/documents/:id", documentHandler.Get)
	api.PATCH("/documents/:id", documentHandler.Update)
	api.PUT("/documents/:id/tags", documentHandler.ReplaceTags)
	api.DELETE("/documents/:id", documentHandler.Delete)
	api.GET("/documents/:id/notes", noteHandler.ListByDocument)

	api.GET("/search", searchHandler.Search)
	api.GET("/tags", documentHandler.ListTags)

	api.POST("/notes", noteHandler.Create)
	api.GET("/notes/:id", noteHandler.Get)
	api.PATCH("/notes/:id", noteHandler.Update)
	api.DELETE("/notes/:id", noteHandler.Delete)

	return router
}
