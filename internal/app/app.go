package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/worklens/server/docs"
	"github.com/worklens/server/internal/module/auth"
	"github.com/worklens/server/internal/module/authz"
	"github.com/worklens/server/internal/module/organization"
	"github.com/worklens/server/internal/module/project"
	"github.com/worklens/server/internal/module/reporting"
	"github.com/worklens/server/internal/module/task"
	"github.com/worklens/server/internal/module/team"
	"github.com/worklens/server/internal/module/tracking"
	"github.com/worklens/server/internal/module/user"
	"github.com/worklens/server/internal/shared/cache"
	"github.com/worklens/server/internal/shared/config"
	"github.com/worklens/server/internal/shared/database"
	"github.com/worklens/server/internal/shared/events"
	"github.com/worklens/server/internal/shared/logger"
	"github.com/worklens/server/internal/shared/metrics"
	"github.com/worklens/server/internal/shared/middleware"
	"github.com/worklens/server/internal/shared/ratelimit"
)

// App is the composition root: it owns every shared resource and wires
// the modules together by hand.
type App struct {
	cfg    *config.Config
	log    *logger.Logger
	zlog   *zap.Logger
	db     *gorm.DB
	redis  redis.UniversalClient
	router *gin.Engine
}

// New builds the application from configuration.
func New(cfg *config.Config) (*App, error) {
	log := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	zlog, err := logger.NewZapLogger(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	m := metrics.New("worklens")
	bus := events.NewBus(zlog)

	app := &App{
		cfg:   cfg,
		log:   log,
		zlog:  zlog,
		db:    db,
		redis: redisClient,
	}
	app.router = app.buildRouter(m, bus, redisClient)

	return app, nil
}

func (a *App) buildRouter(m *metrics.Metrics, bus *events.Bus, redisClient redis.UniversalClient) *gin.Engine {
	cfg := a.cfg

	// Repositories
	userRepo := user.NewRepository(a.db)
	orgRepo := organization.NewRepository(a.db)
	teamRepo := team.NewRepository(a.db)
	projectRepo := project.NewRepository(a.db)
	taskRepo := task.NewRepository(a.db)
	trackingRepo := tracking.NewRepository(a.db)

	// Authorization engine and visibility resolver, both fed by the
	// project repository.
	engine := authz.NewEngine(projectRepo, m)
	resolver := authz.NewResolver(projectRepo)

	// Services
	orgService := organization.NewService(orgRepo, organization.Settings{
		MaxUsers:            cfg.Workspace.DefaultMaxUsers,
		MaxProjects:         cfg.Workspace.DefaultMaxProjects,
		DefaultWorkingHours: float64(cfg.Workspace.DefaultWorkingHours),
		WeekStartsOn:        weekStart(cfg.Workspace.DefaultWeekStartsOn),
	}, a.zlog)
	orgService.SetCounters(userRepo, projectRepo)

	jwtManager := auth.NewJWTManager(&auth.JWTConfig{
		Secret:            cfg.Auth.JWTSecret,
		AccessTokenExpiry: cfg.Auth.AccessTokenExpiry,
		Issuer:            "worklens",
	})

	teamService := team.NewService(teamRepo, userRepo, orgService, ratelimit.NewRedisStore(redisClient), bus, team.Config{
		InvitationExpiry: cfg.Workspace.InvitationExpiry,
		InviteRateLimit:  cfg.Workspace.InviteRateLimit,
	}, m, a.zlog)
	userService := user.NewService(userRepo, orgService, &invitationRedeemer{teams: teamService}, jwtManager, a.zlog)
	projectService := project.NewService(projectRepo, engine, teamService, orgService, a.zlog)
	taskService := task.NewService(taskRepo, projectRepo, engine, a.zlog)
	entryService := tracking.NewEntryService(trackingRepo, resolver, &taskDirectory{tasks: taskRepo}, m, a.zlog)
	breakService := tracking.NewBreakService(trackingRepo, m, a.zlog)
	reportingService := reporting.NewService(trackingRepo, resolver, a.zlog)

	// Invitation emails ride the event bus.
	bus.Register(team.NewInvitationMailer(a.emailSender(), a.zlog))

	// Router
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.log))
	r.Use(middleware.Recovery(a.log))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Metrics(m))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	public := r.Group("/api/v1")
	protected := r.Group("/api/v1")
	protected.Use(middleware.RequireAuth(jwtManager))

	user.NewHandler(userService).RegisterRoutes(public, protected)
	organization.NewHandler(orgService).RegisterRoutes(protected)
	team.NewHandler(teamService).RegisterRoutes(protected)
	project.NewHandler(projectService).RegisterRoutes(protected)
	task.NewHandler(taskService).RegisterRoutes(protected)
	tracking.NewHandler(entryService, breakService).RegisterRoutes(protected)
	reporting.NewHandler(reportingService).RegisterRoutes(protected)

	return r
}

// emailSender picks the invitation transport from configuration.
func (a *App) emailSender() team.EmailSender {
	if a.cfg.Email.Provider == "smtp" {
		return team.NewSMTPEmailSender(&team.SMTPConfig{
			Host:        a.cfg.Email.SMTP.Host,
			Port:        a.cfg.Email.SMTP.Port,
			User:        a.cfg.Email.SMTP.User,
			Password:    a.cfg.Email.SMTP.Password,
			FromAddress: a.cfg.Email.FromAddress,
			FromName:    a.cfg.Email.FromName,
			BaseURL:     a.cfg.Server.BaseURL,
		}, a.zlog)
	}
	return team.NewNoOpEmailSender(a.zlog)
}

// Router returns the HTTP handler.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Close releases shared resources.
func (a *App) Close() error {
	if err := cache.Close(a.redis); err != nil {
		a.zlog.Warn("close redis", zap.Error(err))
	}
	return database.Close(a.db)
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.User{},
		&organization.Organization{},
		&team.Team{},
		&team.Member{},
		&team.Invitation{},
		&project.Project{},
		&project.Member{},
		&task.Task{},
		&tracking.TimeEntry{},
		&tracking.Break{},
	)
}

// taskDirectory adapts the task repository to the tracking module's
// lookup need.
type taskDirectory struct {
	tasks task.Repository
}

func (d *taskDirectory) ProjectIDForTask(ctx context.Context, taskID uuid.UUID) (uuid.UUID, error) {
	t, err := d.tasks.GetByID(ctx, taskID)
	if err != nil {
		return uuid.Nil, err
	}
	return t.ProjectID, nil
}

// invitationRedeemer adapts the team service to invited registration,
// folding its error surface into the user module's sentinels.
type invitationRedeemer struct {
	teams *team.Service
}

func (r *invitationRedeemer) PreviewInvitation(ctx context.Context, email, token string) (uuid.UUID, user.Role, error) {
	orgID, role, err := r.teams.PreviewInvitation(ctx, email, token)
	return orgID, role, redeemErr(err)
}

func (r *invitationRedeemer) CompleteInvitation(ctx context.Context, actor *user.Identity, email, token string) error {
	_, err := r.teams.Accept(ctx, actor, email, token)
	return redeemErr(err)
}

func redeemErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, team.ErrInvitationExpired):
		return user.ErrInvitationExpired
	case errors.Is(err, team.ErrInvitationNotFound),
		errors.Is(err, team.ErrInvitationNotForYou),
		errors.Is(err, team.ErrInvitationAlreadyProcessed):
		return user.ErrInvitationInvalid
	}
	return err
}

// weekStart maps a weekday name to its ISO number, Monday first.
func weekStart(name string) int {
	switch name {
	case "sunday":
		return 7
	case "saturday":
		return 6
	default:
		return 1
	}
}
