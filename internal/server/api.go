package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	auth "kyri56xcaesar/teamboard/internal/authmw"
	"kyri56xcaesar/teamboard/internal/realtime"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	apiVersion = "/api/v1"
)

var (
	config Config
	engine *gin.Engine
	pool   *pgxpool.Pool

	tokenSvc *auth.TokenService

	hub      *realtime.Hub
	tracker  *realtime.Tracker
	wsServer *realtime.Server
)

func initDBConn() {
	var err error
	pool, err = pgxpool.New(
		context.Background(),
		fmt.Sprintf(
			"postgres://%s:%s@%s/%s?sslmode=disable",
			config.DBUser,
			config.DBPassword,
			config.DBAddress,
			config.DBName,
		),
	)
	if err != nil {
		log.Fatalf("could not connect to the database: %v", err)
	}

	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatalf("failed to ping the db: %v", err)
	}

	b, err := os.ReadFile(config.InitSQLPath)
	if err != nil {
		log.Fatalf("failed to open and read the init sql file: %v", err)
	}
	sql := string(b)
	// apply init sql script
	_, err = pool.Exec(context.Background(), sql)
	if err != nil {
		log.Fatalf("failed to execute init sql: %v", err)
	}
}

func setCors() {
	corsconfig := cors.DefaultConfig()
	corsconfig.AllowOrigins = config.AllowedOrigins
	corsconfig.AllowMethods = config.AllowedMethods
	corsconfig.AllowHeaders = config.AllowedHeaders
	engine.Use(cors.New(corsconfig))
}

func mustInitTokens() *auth.TokenService {
	svc, err := auth.NewTokenService(
		[]byte(config.JWTSecret),
		time.Duration(config.TokenTTLMins)*time.Minute,
	)
	if err != nil {
		panic(err)
	}
	return svc
}

func initRealtime() {
	hub = realtime.NewHub()
	tracker = realtime.NewTracker(presenceStore{}, hub)
	wsServer = realtime.NewServer(hub, tracker)
}

func setRoutes() {
	root := engine.Group("/")
	{
		root.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "alive"})
		})
		root.GET("/ws", gin.WrapH(wsServer.Handler()))
	}

	api := engine.Group(apiVersion)
	{
		api.POST("/auth/register", handleRegister)
		api.POST("/auth/login", handleLogin)
	}

	// everything below carries a bearer token
	secure := engine.Group(apiVersion)
	secure.Use(tokenSvc.RequireAuth())
	{
		secure.GET("/auth/me", handleMe)

		secure.GET("/todos", handleTodoList)
		secure.POST("/todos", handleTodoCreate)
		secure.GET("/todos/:todoid", handleTodoGet)
		secure.PUT("/todos/:todoid", handleTodoUpdate)
		secure.DELETE("/todos/:todoid", handleTodoDelete)

		secure.GET("/teams", handleTeamList)
		secure.POST("/teams", handleTeamCreate)
		secure.GET("/teams/:teamid", handleTeamGet)
		secure.PUT("/teams/:teamid/members", handleTeamAddMembers)
		secure.DELETE("/teams/:teamid", handleTeamDelete)

		secure.GET("/projects", handleProjectList)
		secure.POST("/projects", handleProjectCreate)
		secure.GET("/projects/:projectid", handleProjectGet)
		secure.PUT("/projects/:projectid", handleProjectUpdate)
		secure.DELETE("/projects/:projectid", handleProjectDelete)

		secure.GET("/projects/:projectid/tasks", handleTaskList)
		secure.POST("/projects/:projectid/tasks", handleTaskCreate)
		secure.GET("/projects/:projectid/tasks/:taskid", handleTaskGet)
		secure.PUT("/projects/:projectid/tasks/:taskid", handleTaskUpdate)
		secure.PUT("/projects/:projectid/tasks/:taskid/move", handleTaskMove)
		secure.DELETE("/projects/:projectid/tasks/:taskid", handleTaskDelete)

		secure.GET("/messages", handleMessageList)
		secure.POST("/messages", handleMessageCreate)
		secure.PUT("/messages/mark-read", handleMessagesMarkRead)
		secure.GET("/messages/unread/count", handleUnreadCount)

		secure.GET("/users", handleUserList)
		secure.GET("/users/online", handleOnlineUsers)
		secure.GET("/users/:userid/status", handleUserStatus)
	}
}

func InitAndServe(confPath string) {
	config = loadConfig(confPath)

	engine = gin.Default()
	setGinMode(config.ApiGinMode)

	tokenSvc = mustInitTokens()
	initRealtime()

	setCors()
	setRoutes()

	initDBConn()

	// serve http
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Port),
		Handler:           engine,
		ReadHeaderTimeout: time.Second * 5,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	<-ctx.Done()

	stop()
	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// close db conn
	pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}

func setGinMode(mode string) {
	switch strings.ToLower(mode) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "envgin":
		gin.SetMode(gin.EnvGinMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}
