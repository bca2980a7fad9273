package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Nisha0202/lms-backend/config"
	"github.com/Nisha0202/lms-backend/internal/api/handler"
	"github.com/Nisha0202/lms-backend/internal/api/middleware"
	"github.com/Nisha0202/lms-backend/internal/dto"
	"github.com/Nisha0202/lms-backend/internal/model"
	"github.com/Nisha0202/lms-backend/pkg/jwt"
	"github.com/Nisha0202/lms-backend/pkg/redis"
)

// 限流参数：每个 IP 每个路由的窗口内请求数
const (
	loginRateLimit  = 10
	enrollRateLimit = 20
	rateLimitWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时黑名单与限流均降级
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		dto.RegisterValidators(v)
	}

	// nil 指针不能直接赋给接口，否则中间件的 nil 判断失效
	var (
		blacklist middleware.BlacklistChecker
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authn := middleware.JWTAuth(jwtMgr, blacklist)
	can := middleware.RequireCapability
	loginLimit := middleware.RateLimit(limiter, loginRateLimit, rateLimitWindow)
	enrollLimit := middleware.RateLimit(limiter, enrollRateLimit, rateLimitWindow)

	api := r.Group("/api")
	{
		// 认证模块
		auth := api.Group("/auth")
		{
			auth.POST("/register", loginLimit, h.Auth.Register)
			auth.POST("/login", loginLimit, h.Auth.Login)
			auth.POST("/logout", authn, h.Auth.Logout)
			auth.GET("/me", authn, h.Auth.Me)
		}

		// 用户管理
		users := api.Group("/users", authn, can(model.CapManageUsers))
		{
			users.GET("", h.User.ListUsers)
			users.PATCH("/:userId/ban", h.User.ToggleBan)
		}

		// 课程目录：公开浏览，管理员维护
		courses := api.Group("/courses")
		{
			courses.GET("", h.Course.ListCourses)
			courses.GET("/:id", h.Course.GetCourse)

			manage := courses.Group("", authn, can(model.CapManageCourses))
			manage.POST("", h.Course.CreateCourse)
			manage.PUT("/:id", h.Course.UpdateCourse)
			manage.DELETE("/:id", h.Course.DeleteCourse)
			manage.POST("/:id/lessons", h.Course.AddLesson)
			manage.POST("/:id/batches", h.Course.AddBatch)
		}

		// 报名模块
		enrollments := api.Group("/enrollments", authn)
		{
			enrollments.POST("/enroll", can(model.CapEnroll), enrollLimit, h.Enrollment.Enroll)
			enrollments.GET("/my-courses", can(model.CapEnroll), h.Enrollment.MyCourses)
			enrollments.GET("/:id/calendar", can(model.CapEnroll), h.Enrollment.Calendar)

			admin := enrollments.Group("/admin", can(model.CapViewEnrollments))
			admin.GET("/all-enroll", h.Enrollment.AdminList)
			admin.GET("/stats", h.Enrollment.Stats)
			admin.GET("/export", h.Export.ExportEnrollments)
		}

		// 学习模块
		learn := api.Group("/learn", authn, can(model.CapLearn))
		{
			learn.GET("/course/:courseId", h.Learning.GetCourseContent)
			learn.POST("/complete", h.Learning.MarkComplete)
		}

		// 支付模块
		pay := api.Group("/payment", authn, can(model.CapEnroll), enrollLimit)
		{
			pay.POST("/create-checkout-session", h.Payment.CreateCheckoutSession)
			pay.POST("/verify-session", h.Payment.VerifySession)
		}

		// 测评模块
		assessments := api.Group("/assessments", authn)
		{
			assessments.POST("/submit-assignment", can(model.CapSubmitWork), h.Assessment.SubmitAssignment)
			assessments.GET("/my-grades", can(model.CapSubmitWork), h.Assessment.MyGrades)

			grading := assessments.Group("", can(model.CapGrade))
			grading.POST("/grade-assignment/:submissionId", h.Assessment.GradeAssignment)
			grading.POST("/record-quiz-score/:resultId", h.Assessment.RecordQuizScore)
			grading.GET("/admin/quizzes", h.Assessment.ListQuizResults)
			grading.GET("/admin/submissions", h.Assessment.ListSubmissions)
		}
	}

	return r
}
