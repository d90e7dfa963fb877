package server

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"nonprofit-backend/internal/auth"
	"nonprofit-backend/internal/cache"
	"nonprofit-backend/internal/config"
	"nonprofit-backend/internal/handler"
	"nonprofit-backend/internal/middleware"
	"nonprofit-backend/internal/service"
	"nonprofit-backend/internal/storage"
)

// Server Fiber 서버 래퍼
type Server struct {
	app                    *fiber.App
	cfg                    *config.Config
	db                     *gorm.DB
	redis                  *cache.RedisClient
	authHandler            *handler.AuthHandler
	userHandler            *handler.UserHandler
	healthHandler          *handler.HealthHandler
	orgHandler             *handler.OrganizationHandler
	roleHandler            *handler.RoleHandler
	meetingHandler         *handler.MeetingHandler
	agendaHandler          *handler.AgendaHandler
	minutesHandler         *handler.MinutesHandler
	taskHandler            *handler.TaskHandler
	documentHandler        *handler.DocumentHandler
	shareHandler           *handler.ShareHandler
	exportHandler          *handler.ExportHandler
	feedbackHandler        *handler.FeedbackHandler
	notificationHandler    *handler.NotificationHandler
	notificationWSHandler  *handler.NotificationWSHandler
	backgroundCheckHandler *handler.BackgroundCheckHandler
	researchHandler        *handler.ResearchHandler
	orgMiddleware          *middleware.OrgMiddleware
	jwtManager             *auth.JWTManager
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, db *gorm.DB) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "Nonprofit Board Backend",
		ServerHeader:          "Fiber",
		StrictRouting:         false,
		CaseSensitive:         true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		Prefork:               false, // WebSocket과 호환성 문제로 비활성화
		BodyLimit:             10 * 1024 * 1024, // 10MB
		DisableStartupMessage: false,
	})

	// Auth 초기화
	jwtManager := auth.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	googleAuth := auth.NewGoogleAuthenticator(cfg.Auth.GoogleClientID)

	// Redis 초기화 (공유 게이트 세션 저장소)
	redisClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("🚨 Redis connection failed: %v", err)
	}

	// S3 서비스 초기화
	s3Service, err := storage.NewS3Service(&cfg.S3)
	if err != nil {
		log.Fatalf("🚨 S3 service initialization failed: %v", err)
	}
	log.Printf("✅ S3 service initialized (bucket: %s)", cfg.S3.BucketName)

	memberService := service.NewMemberService(db)

	return &Server{
		app:                    app,
		cfg:                    cfg,
		db:                     db,
		redis:                  redisClient,
		authHandler:            handler.NewAuthHandler(db, jwtManager, googleAuth, cfg.Auth.SecureCookie),
		userHandler:            handler.NewUserHandler(db),
		healthHandler:          handler.NewHealthHandler(db, redisClient),
		orgHandler:             handler.NewOrganizationHandler(db),
		roleHandler:            handler.NewRoleHandler(db),
		meetingHandler:         handler.NewMeetingHandler(db),
		agendaHandler:          handler.NewAgendaHandler(db),
		minutesHandler:         handler.NewMinutesHandler(db),
		taskHandler:            handler.NewTaskHandler(db),
		documentHandler:        handler.NewDocumentHandler(db, s3Service),
		shareHandler:           handler.NewShareHandler(db, redisClient, s3Service, cfg.Share),
		exportHandler:          handler.NewExportHandler(db, s3Service),
		feedbackHandler:        handler.NewFeedbackHandler(db),
		notificationHandler:    handler.NewNotificationHandler(db),
		notificationWSHandler:  handler.GetNotificationWSHandler(),
		backgroundCheckHandler: handler.NewBackgroundCheckHandler(db),
		researchHandler:        handler.NewResearchHandler(db),
		orgMiddleware:          middleware.NewOrgMiddleware(memberService),
		jwtManager:             jwtManager,
	}
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Seoul",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORS.AllowOrigins,
		AllowHeaders:     s.cfg.CORS.AllowHeaders,
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)

	// Rate Limiter (인증 + 공개 게이트 엔드포인트의 Brute Force 방지)
	authLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"data":    fiber.Map{"message": "too many requests, please try again later"},
			})
		},
	})

	authRequired := auth.AuthMiddleware(s.jwtManager)

	// Auth 라우트
	authGroup := s.app.Group("/auth")
	authGroup.Post("/google", authLimiter, s.authHandler.GoogleLogin)
	authGroup.Post("/refresh", authLimiter, s.authHandler.RefreshToken)
	authGroup.Post("/logout", authRequired, s.authHandler.Logout)
	authGroup.Get("/me", authRequired, s.authHandler.GetMe)
	authGroup.Put("/me", authRequired, s.userHandler.UpdateProfile)

	// User 라우트
	userGroup := s.app.Group("/api/users", authRequired)
	userGroup.Get("/search", s.userHandler.SearchUsers)

	// Notification 라우트
	notificationGroup := s.app.Group("/api/notifications", authRequired)
	notificationGroup.Get("", s.notificationHandler.GetMyNotifications)
	notificationGroup.Post("/:id/read", s.notificationHandler.MarkAsRead)
	notificationGroup.Post("/read-all", s.notificationHandler.MarkAllAsRead)

	// Feedback 라우트
	feedbackGroup := s.app.Group("/api/feedback", authRequired)
	feedbackGroup.Post("", s.feedbackHandler.SubmitFeedback)
	feedbackGroup.Get("", s.feedbackHandler.GetFeedbacks)

	// Organization 라우트
	orgGroup := s.app.Group("/api/orgs", authRequired)
	orgGroup.Post("/", s.orgHandler.CreateOrganization)
	orgGroup.Get("/", s.orgHandler.GetMyOrganizations)
	orgGroup.Post("/:orgId/invitations/accept", s.orgHandler.AcceptInvite)

	requireMember := s.orgMiddleware.RequireMembership()
	requireOwner := s.orgMiddleware.RequireOwnership()

	orgGroup.Get("/:orgId", requireMember, s.orgHandler.GetOrganization)
	orgGroup.Put("/:orgId", requireOwner, s.orgHandler.UpdateOrganization)
	orgGroup.Delete("/:orgId", requireOwner, s.orgHandler.DeleteOrganization)
	orgGroup.Delete("/:orgId/leave", requireMember, s.orgHandler.LeaveOrganization)

	// Member 라우트
	orgGroup.Get("/:orgId/members", requireMember, s.orgHandler.GetMembers)
	orgGroup.Post("/:orgId/members", requireMember, s.orgHandler.InviteMember)
	orgGroup.Put("/:orgId/members/:memberId/role", requireOwner, s.orgHandler.UpdateMemberRole)
	orgGroup.Delete("/:orgId/members/:memberId", requireOwner, s.orgHandler.RemoveMember)

	// Role 라우트
	orgGroup.Get("/:orgId/roles", requireMember, s.roleHandler.GetRoles)
	orgGroup.Post("/:orgId/roles", requireMember, s.roleHandler.CreateRole)
	orgGroup.Put("/:orgId/roles/:roleId", requireMember, s.roleHandler.UpdateRole)
	orgGroup.Delete("/:orgId/roles/:roleId", requireMember, s.roleHandler.DeleteRole)

	// Meeting 라우트
	orgGroup.Get("/:orgId/meetings", requireMember, s.meetingHandler.GetMeetings)
	orgGroup.Post("/:orgId/meetings", requireMember, s.meetingHandler.CreateMeeting)
	orgGroup.Get("/:orgId/meetings/:meetingId", requireMember, s.meetingHandler.GetMeeting)
	orgGroup.Put("/:orgId/meetings/:meetingId", requireMember, s.meetingHandler.UpdateMeeting)
	orgGroup.Post("/:orgId/meetings/archive", requireMember, s.meetingHandler.ArchiveMeetings)
	orgGroup.Post("/:orgId/meetings/delete", requireMember, s.meetingHandler.DeleteMeetings)

	// Agenda 라우트 (회의 하위)
	orgGroup.Get("/:orgId/meetings/:meetingId/agenda", requireMember, s.agendaHandler.GetAgendaItems)
	orgGroup.Post("/:orgId/meetings/:meetingId/agenda", requireMember, s.agendaHandler.CreateAgendaItem)
	orgGroup.Put("/:orgId/meetings/:meetingId/agenda/reorder", requireMember, s.agendaHandler.ReorderAgenda)
	orgGroup.Put("/:orgId/meetings/:meetingId/agenda/:itemId", requireMember, s.agendaHandler.UpdateAgendaItem)
	orgGroup.Delete("/:orgId/meetings/:meetingId/agenda/:itemId", requireMember, s.agendaHandler.DeleteAgendaItem)

	// Minutes 라우트 (회의 하위)
	orgGroup.Get("/:orgId/meetings/:meetingId/minutes", requireMember, s.minutesHandler.GetMinutes)
	orgGroup.Put("/:orgId/meetings/:meetingId/minutes", requireMember, s.minutesHandler.SaveMinutes)
	orgGroup.Put("/:orgId/meetings/:meetingId/minutes/autosave", requireMember, s.minutesHandler.AutoSaveMinutes)
	orgGroup.Post("/:orgId/meetings/:meetingId/minutes/approve", requireMember, s.minutesHandler.ApproveMinutes)

	// Export 라우트 (회의 하위)
	orgGroup.Post("/:orgId/meetings/:meetingId/export/agenda", requireMember, s.exportHandler.ExportAgenda)
	orgGroup.Post("/:orgId/meetings/:meetingId/export/minutes", requireMember, s.exportHandler.ExportMinutes)

	// Task 라우트
	orgGroup.Get("/:orgId/tasks", requireMember, s.taskHandler.GetTasks)
	orgGroup.Post("/:orgId/tasks", requireMember, s.taskHandler.CreateTask)
	orgGroup.Get("/:orgId/tasks/:taskId", requireMember, s.taskHandler.GetTask)
	orgGroup.Put("/:orgId/tasks/:taskId", requireMember, s.taskHandler.UpdateTask)
	orgGroup.Delete("/:orgId/tasks/:taskId", requireMember, s.taskHandler.DeleteTask)
	orgGroup.Post("/:orgId/tasks/:taskId/comments", requireMember, s.taskHandler.CreateComment)

	// Document 라우트
	orgGroup.Get("/:orgId/documents", requireMember, s.documentHandler.GetDocuments)
	orgGroup.Post("/:orgId/documents/presign", requireMember, s.documentHandler.PresignUpload)
	orgGroup.Post("/:orgId/documents/confirm", requireMember, s.documentHandler.ConfirmUpload)
	orgGroup.Get("/:orgId/documents/:documentId", requireMember, s.documentHandler.GetDocument)
	orgGroup.Put("/:orgId/documents/:documentId", requireMember, s.documentHandler.UpdateDocument)
	orgGroup.Delete("/:orgId/documents/:documentId", requireMember, s.documentHandler.DeleteDocument)
	orgGroup.Get("/:orgId/documents/:documentId/download", requireMember, s.documentHandler.GetDownloadURL)

	// Document Share 라우트
	orgGroup.Get("/:orgId/documents/:documentId/shares", requireMember, s.shareHandler.GetShares)
	orgGroup.Post("/:orgId/documents/:documentId/shares", requireMember, s.shareHandler.CreateShare)
	orgGroup.Get("/:orgId/shares/:shareId/logs", requireMember, s.shareHandler.GetAccessLogs)
	orgGroup.Delete("/:orgId/shares/:shareId", requireMember, s.shareHandler.RevokeShare)

	// Background Check 라우트
	orgGroup.Get("/:orgId/background-checks", requireMember, s.backgroundCheckHandler.GetChecks)
	orgGroup.Post("/:orgId/background-checks", requireMember, s.backgroundCheckHandler.CreateCheck)
	orgGroup.Put("/:orgId/background-checks/:checkId", requireMember, s.backgroundCheckHandler.UpdateCheck)
	orgGroup.Delete("/:orgId/background-checks/:checkId", requireMember, s.backgroundCheckHandler.DeleteCheck)

	// Wealth Research 라우트
	orgGroup.Get("/:orgId/research", requireMember, s.researchHandler.GetRecords)
	orgGroup.Post("/:orgId/research", requireMember, s.researchHandler.CreateRecord)
	orgGroup.Put("/:orgId/research/:recordId", requireMember, s.researchHandler.UpdateRecord)
	orgGroup.Delete("/:orgId/research/:recordId", requireMember, s.researchHandler.DeleteRecord)

	// 공개 공유 게이트 라우트 (인증 불필요)
	shareGroup := s.app.Group("/share")
	shareGroup.Get("/:token", s.shareHandler.GetGateInfo)
	shareGroup.Post("/:token/access", authLimiter, s.shareHandler.SubmitGate)
	shareGroup.Get("/:token/view", s.shareHandler.ViewDocument)
	shareGroup.Post("/:token/download", s.shareHandler.DownloadDocument)

	// 공개 포털 라우트 (인증 불필요)
	s.app.Get("/portal/:orgId/documents", s.documentHandler.GetPortalDocuments)
	s.app.Get("/portal/:orgId/documents/:documentId/download", s.documentHandler.GetPortalDownloadURL)

	// WebSocket 알림 엔드포인트
	s.app.Get("/ws/notifications", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// 쿠키에서 JWT 토큰 추출
		accessToken := c.Cookies("access_token")
		if accessToken == "" {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		claims, err := s.jwtManager.ValidateAccessToken(accessToken)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		c.Locals("userID", claims.UserID)
		return c.Next()
	}, websocket.New(s.notificationWSHandler.HandleWebSocket, websocket.Config{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}))
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
		s.redis.Close()
	}()

	log.Printf("🚀 Nonprofit Board Backend starting on %s", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
