package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/handler"
	"github.com/campushub/ums-api/internal/middleware"
	"github.com/campushub/ums-api/internal/models"
	"github.com/campushub/ums-api/internal/repository"
	"github.com/campushub/ums-api/internal/service"
	"github.com/campushub/ums-api/pkg/config"
	"github.com/campushub/ums-api/pkg/logger"
	corsmiddleware "github.com/campushub/ums-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushub/ums-api/pkg/middleware/requestid"
)

// Deps carries everything the router mounts.
type Deps struct {
	Auth          *service.AuthService
	Metrics       *service.MetricsService
	Users         *repository.UserRepository
	AuthHandler   *handler.AuthHandler
	Accounts      *handler.AccountHandler
	Courses       *handler.CourseHandler
	SessionCourse *handler.SessionCourseHandler
	Schedules     *handler.ScheduleHandler
	References    *handler.ReferenceHandler
	Enrollments   *handler.EnrollmentHandler
	Library       *handler.LibraryHandler
	Workspaces    *handler.WorkspaceHandler
	Chat          *handler.ChatHandler
	Quizzes       *handler.QuizHandler
	Proposals     *handler.ProposalHandler
	Committee     *handler.CommitteeHandler
	Alerts        *handler.AlertHandler
	FaceRec       *handler.FaceRecHandler
	Reports       *handler.ReportHandler
}

// New assembles the gin engine. Optional feature groups mount only when
// their config flag is on.
func New(cfg *config.Config, logr *zap.Logger, deps Deps) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.AuthHandler.Login)
		auth.POST("/refresh", deps.AuthHandler.Refresh)

		authed := auth.Group("", middleware.JWT(deps.Auth))
		authed.POST("/logout", deps.AuthHandler.Logout)
		authed.PUT("/change-password", deps.AuthHandler.ChangePassword)
		authed.GET("/me", deps.AuthHandler.Me)
	}

	protected := api.Group("", middleware.JWT(deps.Auth))

	staff := protected.Group("", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff))
	admin := protected.Group("", middleware.RequireRoles(models.RoleAdmin))

	accounts := staff.Group("/accounts")
	{
		accounts.GET("/:type", deps.Accounts.List)
		accounts.GET("/:type/:id", deps.Accounts.Get)
		accounts.POST("/:type", middleware.Audit(deps.Users, models.AuditActionCreate, "account"), deps.Accounts.Create)
		accounts.PUT("/:type/:id", middleware.Audit(deps.Users, models.AuditActionUpdate, "account"), deps.Accounts.Update)
		accounts.PUT("/:type/:id/block", middleware.Audit(deps.Users, models.AuditActionUpdate, "account"), deps.Accounts.Block)
		accounts.PUT("/:type/:id/unblock", middleware.Audit(deps.Users, models.AuditActionUpdate, "account"), deps.Accounts.Unblock)
		accounts.POST("/:type/:id/ips", deps.Accounts.RegisterIP)
		accounts.DELETE("/:type/:id/ips", deps.Accounts.UnregisterIP)
		accounts.DELETE("/:type/:id", middleware.Audit(deps.Users, models.AuditActionDelete, "account"), deps.Accounts.SoftDelete)
		accounts.PUT("/:type/:id/restore", middleware.Audit(deps.Users, models.AuditActionUpdate, "account"), deps.Accounts.Restore)

		accounts.GET("/:type/:id/profile", deps.Accounts.Profile)
		accounts.PUT("/:type/:id/profile", deps.Accounts.SaveProfile)
		accounts.POST("/:type/:id/addresses", deps.Accounts.AddAddress)
		accounts.PUT("/:type/:id/addresses/:addressId/primary", deps.Accounts.SetPrimaryAddress)
		accounts.DELETE("/:type/:id/addresses/:addressId", deps.Accounts.RemoveAddress)
	}
	// Permanent deletion is irreversible, admins only.
	admin.DELETE("/accounts/:type/:id/permanent",
		middleware.Audit(deps.Users, models.AuditActionDelete, "account"), deps.Accounts.PermanentDelete)

	{
		protected.GET("/courses", deps.Courses.List)
		protected.GET("/courses/:id", deps.Courses.Get)
		staff.POST("/courses", deps.Courses.Create)
		staff.PUT("/courses/:id", deps.Courses.Update)
		staff.DELETE("/courses/:id", deps.Courses.Delete)

		protected.GET("/prerequisites", deps.Courses.ListPrerequisites)
		staff.POST("/prerequisites", deps.Courses.CreatePrerequisite)
		staff.PUT("/prerequisites/:id", deps.Courses.UpdatePrerequisite)
		staff.DELETE("/prerequisites/:id", deps.Courses.DeletePrerequisite)

		protected.GET("/session-courses", deps.SessionCourse.List)
		staff.POST("/session-courses", deps.SessionCourse.Create)
		staff.POST("/session-courses/sync", deps.SessionCourse.Sync)
		staff.DELETE("/session-courses/:id", deps.SessionCourse.Delete)

		protected.GET("/schedules", deps.Schedules.List)
		protected.GET("/schedules/:id", deps.Schedules.Get)
		staff.POST("/schedules", deps.Schedules.Create)
		staff.PUT("/schedules/:id", deps.Schedules.Update)
		staff.DELETE("/schedules/:id", deps.Schedules.Delete)

		protected.GET("/departments", deps.References.Departments)
		protected.GET("/sessions", deps.References.Sessions)
		protected.GET("/batches", deps.References.Batches)
		protected.GET("/batches/:id", deps.References.Batch)

		staff.POST("/enrollments/batch", deps.Enrollments.EnrollBatch)
		staff.POST("/enrollments", deps.Enrollments.EnrollStudent)
		staff.GET("/enrollments/batch-semester-courses", deps.Enrollments.BatchSemesterCourses)
		protected.GET("/students/:id/enrollments", deps.Enrollments.ListByStudent)
	}

	if cfg.Library.Enabled {
		library := protected.Group("/library")
		libraryStaff := staff.Group("/library")

		library.GET("/books", deps.Library.ListBooks)
		library.GET("/books/:id", deps.Library.GetBook)
		libraryStaff.POST("/books", deps.Library.CreateBook)
		libraryStaff.PUT("/books/:id", deps.Library.UpdateBook)
		libraryStaff.DELETE("/books/:id", deps.Library.DeleteBook)
		libraryStaff.POST("/books/:id/copies", deps.Library.GenerateCopies)

		libraryStaff.GET("/borrowings", deps.Library.ListBorrowings)
		libraryStaff.POST("/borrowings", deps.Library.Borrow)
		libraryStaff.PUT("/borrowings/:id/return", deps.Library.Return)
		libraryStaff.PUT("/borrowings/:id/pay-fine", deps.Library.PayFine)

		library.POST("/reservations", deps.Library.Reserve)
		library.DELETE("/reservations/:id", deps.Library.CancelReservation)
	}

	{
		staff.GET("/workspaces", deps.Workspaces.List)
		staff.GET("/workspaces/pending", deps.Workspaces.Pending)
		staff.POST("/workspaces", deps.Workspaces.Create)
		staff.PUT("/workspaces/:id/archive", deps.Workspaces.Archive)
		staff.PUT("/workspaces/:id/reactivate", deps.Workspaces.Reactivate)
	}

	if cfg.Chat.Enabled {
		chat := protected.Group("/chat")
		chat.GET("/groups", deps.Chat.ListGroups)
		chat.GET("/groups/:id/messages", deps.Chat.Messages)
		chat.POST("/groups/:id/messages", deps.Chat.Post)

		staff.POST("/chat/groups/batch", deps.Chat.EnsureBatchGroup)
	}

	if cfg.Quizzes.Enabled {
		protected.GET("/quizzes", deps.Quizzes.ListForStudent)
		protected.POST("/quizzes", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleTeacher), deps.Quizzes.Create)
		protected.POST("/quizzes/:id/attempts", middleware.RequireRoles(models.RoleStudent), deps.Quizzes.StartAttempt)
		protected.PUT("/quiz-attempts/:id/submit", middleware.RequireRoles(models.RoleStudent), deps.Quizzes.SubmitAttempt)
	}

	if cfg.Proposals.Enabled {
		staff.GET("/proposals", deps.Proposals.List)
		staff.GET("/proposals/:id", deps.Proposals.Get)
		staff.PUT("/proposals/:id/approve", deps.Proposals.Approve)
		staff.PUT("/proposals/:id/reject", deps.Proposals.Reject)
	}

	if cfg.Committee.Enabled {
		committee := protected.Group("/committee", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleTeacher))
		committee.GET("/results", deps.Committee.List)
		committee.PUT("/results/:id/status", deps.Committee.Transition)
	}

	{
		staff.GET("/alerts", deps.Alerts.List)
		staff.DELETE("/alerts/:id", deps.Alerts.Dismiss)
		staff.DELETE("/alerts", deps.Alerts.DismissAll)
	}

	if cfg.FaceRec.Enabled {
		facerec := staff.Group("/facerec")
		facerec.GET("/status", deps.FaceRec.Status)
		facerec.GET("/metrics", deps.FaceRec.Metrics)
		facerec.GET("/students", deps.FaceRec.Students)
		facerec.DELETE("/students/:id", deps.FaceRec.DeleteStudent)
		facerec.POST("/train", deps.FaceRec.Train)
	}

	if cfg.Reports.Enabled {
		staff.POST("/reports", deps.Reports.Request)
		staff.GET("/reports", deps.Reports.ListMine)
		staff.GET("/reports/:id", deps.Reports.Get)
		staff.POST("/reports/:id/link", deps.Reports.Link)
		// Token-authenticated; the signed token replaces the session.
		api.GET("/reports/download", deps.Reports.Download)
	}

	return r
}
