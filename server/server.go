package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/gamebackend/logger"
	"github.com/wfunc/gamebackend/monitor"
	"github.com/wfunc/gamebackend/persistence"
	"github.com/wfunc/gamebackend/services"
)

type APIServer struct {
	addr        string
	engine      *gin.Engine
	httpServer  *http.Server
	db          persistence.Database
	users       *services.UserService
	rooms       *services.RoomService
	staking     *services.StakingService
	leaderboard *services.LeaderboardService
}

func NewAPIServer(addr string, db persistence.Database, mon *monitor.Monitor) *APIServer {
	s := &APIServer{
		addr:        addr,
		db:          db,
		users:       services.NewUserService(db),
		rooms:       services.NewRoomService(db),
		staking:     services.NewStakingService(db),
		leaderboard: services.NewLeaderboardService(db),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(CORS())
	engine.Use(RequestID())
	engine.Use(RequestLogger())
	if mon != nil {
		engine.Use(RequestMetrics(mon))
	}

	engine.GET("/", s.handleRoot)
	engine.GET("/healthz", s.handleHealth)

	api := engine.Group("/api")
	{
		api.POST("/user/setup", s.handleSetupUser)
		api.POST("/user/update-score", s.handleUpdateScore)
		api.POST("/user/update-current-room", s.handleUpdateCurrentRoom)
		api.GET("/user/:walletAddress", s.handleGetUser)
		api.GET("/user/is-staked/:walletAddress", s.handleGetStakeStatus)
		api.GET("/user/rooms-played/:walletAddress", s.handleRoomsPlayed)

		api.POST("/room/join", s.handleJoinRoom)
		api.GET("/room/:roomId", s.handleGetRoom)

		api.POST("/stake", s.handleUpdateStakedStatus)
		api.POST("/stake/history/add", s.handleAddStakingRecord)
		api.GET("/stake/history/:walletAddress", s.handleStakingHistory)

		api.POST("/leaderboard/add", s.handleAddLeaderboardEntry)
		api.GET("/leaderboard/wallet/:walletAddress", s.handleLeaderboardByWallet)
		api.GET("/leaderboard/room/:roomId", s.handleLeaderboardByRoom)
	}

	s.engine = engine
	return s
}

// Handler exposes the route tree for tests.
func (s *APIServer) Handler() http.Handler {
	return s.engine
}

func (s *APIServer) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}
	logger.Log.Infof("API server listening on %s", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *APIServer) handleRoot(c *gin.Context) {
	c.String(http.StatusOK, "game backend up")
}

func (s *APIServer) handleHealth(c *gin.Context) {
	if err := s.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
