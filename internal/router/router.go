package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"legalyzer/internal/handler"
	"legalyzer/internal/metrics"
	"legalyzer/internal/middleware"
)

// Options holds the request policy applied by the router.
type Options struct {
	AllowedOrigins   []string
	MaxUploadBytes   int64
	AnalyzePerMinute int
	AnalyzeBurst     int
	// Metrics enables request instrumentation and GET /metrics when set.
	Metrics *metrics.Metrics
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	opts Options,
	analysisH *handler.AnalysisHandler,
	exportH *handler.ExportHandler,
	systemH *handler.SystemHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(opts.AllowedOrigins))
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	// Health checks
	r.GET("/health", healthH.Health)
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Upload is the only expensive entry point, so it alone is rate limited.
	analyze := []gin.HandlerFunc{middleware.BodyLimit(opts.MaxUploadBytes)}
	if opts.AnalyzePerMinute > 0 {
		limiter := middleware.NewIPRateLimiter(opts.AnalyzePerMinute, opts.AnalyzeBurst)
		analyze = append(analyze, middleware.RateLimit(limiter))
	}
	analyze = append(analyze, analysisH.Analyze)
	r.POST("/analyze", analyze...)

	r.GET("/analysis/:file_id", analysisH.Get)
	r.GET("/analyses", analysisH.List)
	r.DELETE("/analyses", analysisH.Clear)
	r.GET("/documents/:file_id", analysisH.Original)

	// Param names only have to agree within one method's tree.
	r.POST("/export/:file_id/:format", exportH.Create)
	r.GET("/export/:task_id", exportH.Poll)
	r.GET("/export/:task_id/download", exportH.Download)

	r.GET("/supported-formats", systemH.SupportedFormats)
	r.GET("/stats", systemH.Stats)
	r.GET("/retention/status", systemH.RetentionStatus)
	r.POST("/retention/cleanup", systemH.RetentionCleanup)

	return r
}
