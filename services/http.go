package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	docs "github.com/djimmy2web/certifdiag_api/docs"
	"github.com/djimmy2web/certifdiag_api/services/handlers"
	"github.com/djimmy2web/certifdiag_api/shared"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/gofiber/swagger"
	log "github.com/sirupsen/logrus"
)

type HttpService struct {
	context.DefaultService

	authSvc        *AuthService
	sessionSvc     *SessionService
	livesSvc       *LivesService
	questSvc       *QuestService
	contentSvc     *ContentService
	leaderboardSvc *LeaderboardService
	monitoringSvc  *MonitoringService

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	svc.authSvc = ctx.Service(AUTH_SVC).(*AuthService)
	svc.sessionSvc = ctx.Service(SESSION_SVC).(*SessionService)
	svc.livesSvc = ctx.Service(LIVES_SVC).(*LivesService)
	svc.questSvc = ctx.Service(QUEST_SVC).(*QuestService)
	svc.contentSvc = ctx.Service(CONTENT_SVC).(*ContentService)
	svc.leaderboardSvc = ctx.Service(LEADERBOARD_SVC).(*LeaderboardService)
	svc.monitoringSvc = ctx.Service(MONITORING_SVC).(*MonitoringService)

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	docs.SwaggerInfo.BasePath = ""

	app := fiber.New(fiber.Config{
		ErrorHandler: svc.errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(svc.monitoringSvc.Middleware())

	app.Get("/ping", svc.ping)
	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	authHandler := handlers.NewAuthHandler(svc.authSvc)
	quizHandler := handlers.NewQuizHandler(svc.sessionSvc)
	livesHandler := handlers.NewLivesHandler(svc.livesSvc)
	questHandler := handlers.NewQuestHandler(svc.questSvc)
	contentHandler := handlers.NewContentHandler(svc.contentSvc)
	leaderboardHandler := handlers.NewLeaderboardHandler(svc.leaderboardSvc)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	v1.Post("/auth/register", authHandler.Register)
	v1.Post("/auth/login", authHandler.Login)

	v1.Get("/themes", contentHandler.GetThemes)
	v1.Get("/quizzes", contentHandler.GetQuizzes)
	v1.Get("/quizzes/:quizId", contentHandler.GetQuiz)
	v1.Get("/leaderboard", leaderboardHandler.GetLeaderboard)

	authed := v1.Group("", svc.authSvc.RequiredAuth())
	authed.Post("/quizzes/:quizId/start", quizHandler.StartQuiz)
	authed.Post("/quizzes/:quizId/answer", quizHandler.SubmitAnswer)
	authed.Get("/me/lives", livesHandler.GetLives)
	authed.Post("/me/lives", livesHandler.LivesAction)
	authed.Get("/me/quests", questHandler.GetDailyQuests)

	app.Use(func(c *fiber.Ctx) error {
		return shared.ResponseNotFound(c)
	})

	svc.server = app

	log.WithField("port", svc.port).Info("HTTP server started")
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseJSON(c, http.StatusOK, "Success", "pong")
}

// errorHandler maps AppErrors onto the response envelope; anything else is a
// 500 with the bare message.
func (svc *HttpService) errorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		if appErr.StatusCode >= 500 {
			log.WithError(appErr.Err).Error(appErr.Message)
		}
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	return shared.ResponseInternalError(c, err)
}
