package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/gamebackend/models"
	"github.com/wfunc/gamebackend/persistence"
	"github.com/wfunc/gamebackend/services"
)

// respondError maps a service error to exactly one HTTP response.
// notFound and internal carry the endpoint's own message strings.
func respondError(c *gin.Context, err error, notFound, internal string) {
	switch {
	case errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrUsernameTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, persistence.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": internal})
	}
}

// POST /api/user/setup
func (s *APIServer) handleSetupUser(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress"`
		Username      string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.users.SetupUser(req.WalletAddress, req.Username)
	if err != nil {
		respondError(c, err, "User not found", "Failed to setup user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// POST /api/user/update-score
func (s *APIServer) handleUpdateScore(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress" binding:"required"`
		Kills         int    `json:"kills"`
		Score         int    `json:"score"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.users.UpdateScore(req.WalletAddress, req.Kills, req.Score)
	if err != nil {
		respondError(c, err, "User not found", "Failed to update score and kills")
		return
	}
	c.JSON(http.StatusOK, user)
}

// POST /api/user/update-current-room
func (s *APIServer) handleUpdateCurrentRoom(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress"`
		CurrentRoom   string `json:"currentRoom"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.users.UpdateCurrentRoom(req.WalletAddress, req.CurrentRoom)
	if err != nil {
		respondError(c, err, "User not found", "Failed to update current room")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Current room updated", "user": user})
}

// GET /api/user/:walletAddress
func (s *APIServer) handleGetUser(c *gin.Context) {
	user, err := s.users.GetUser(c.Param("walletAddress"))
	if err != nil {
		respondError(c, err, "User not found", "Failed to retrieve user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// GET /api/user/is-staked/:walletAddress
func (s *APIServer) handleGetStakeStatus(c *gin.Context) {
	status, err := s.users.GetStakeStatus(c.Param("walletAddress"))
	if err != nil {
		respondError(c, err, "User not found", "Failed to retrieve stake status")
		return
	}
	c.JSON(http.StatusOK, status)
}

// GET /api/user/rooms-played/:walletAddress
func (s *APIServer) handleRoomsPlayed(c *gin.Context) {
	rooms, err := s.users.RoomsPlayed(c.Param("walletAddress"))
	if err != nil {
		respondError(c, err, "No rooms found for this user", "Failed to fetch rooms and usernames")
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// POST /api/room/join
func (s *APIServer) handleJoinRoom(c *gin.Context) {
	var req struct {
		RoomID        string `json:"roomId"`
		WalletAddress string `json:"walletAddress"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := s.rooms.Join(req.RoomID, req.WalletAddress)
	if err != nil {
		respondError(c, err, "Room not found", "Failed to join room")
		return
	}
	c.JSON(http.StatusOK, room)
}

// GET /api/room/:roomId
func (s *APIServer) handleGetRoom(c *gin.Context) {
	room, err := s.rooms.Get(c.Param("roomId"))
	if err != nil {
		respondError(c, err, "Room not found", "Failed to retrieve room")
		return
	}
	c.JSON(http.StatusOK, room)
}

// POST /api/stake
func (s *APIServer) handleUpdateStakedStatus(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress" binding:"required"`
		IsStaked      bool   `json:"isStaked"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.users.UpdateStakedStatus(req.WalletAddress, req.IsStaked)
	if err != nil {
		respondError(c, err, "User not found", "Failed to update stake status")
		return
	}
	c.JSON(http.StatusOK, user)
}

// POST /api/stake/history/add
func (s *APIServer) handleAddStakingRecord(c *gin.Context) {
	var req struct {
		WalletAddress string  `json:"walletAddress" binding:"required"`
		Amount        float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := s.staking.AddRecord(req.WalletAddress, req.Amount)
	if err != nil {
		respondError(c, err, "User not found", "Failed to save staking data")
		return
	}
	c.JSON(http.StatusOK, record)
}

// GET /api/stake/history/:walletAddress
func (s *APIServer) handleStakingHistory(c *gin.Context) {
	records, err := s.staking.History(c.Param("walletAddress"))
	if err != nil {
		respondError(c, err, "User not found", "Failed to retrieve staking data")
		return
	}
	c.JSON(http.StatusOK, records)
}

// POST /api/leaderboard/add
func (s *APIServer) handleAddLeaderboardEntry(c *gin.Context) {
	var req struct {
		WalletAddress string  `json:"walletAddress" binding:"required"`
		Kills         int     `json:"kills"`
		Score         int     `json:"score"`
		RoomID        string  `json:"roomId"`
		Username      string  `json:"username"`
		GameTime      float64 `json:"gameTime"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := s.leaderboard.AddEntry(&models.LeaderboardEntry{
		WalletAddress: req.WalletAddress,
		Kills:         req.Kills,
		Score:         req.Score,
		RoomID:        req.RoomID,
		Username:      req.Username,
		GameTime:      req.GameTime,
	})
	if err != nil {
		respondError(c, err, "User not found", "Failed to save leaderboard entry")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// GET /api/leaderboard/wallet/:walletAddress
func (s *APIServer) handleLeaderboardByWallet(c *gin.Context) {
	entries, err := s.leaderboard.ByWallet(c.Param("walletAddress"))
	if err != nil {
		respondError(c, err, "User not found", "Failed to retrieve leaderboard")
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GET /api/leaderboard/room/:roomId
func (s *APIServer) handleLeaderboardByRoom(c *gin.Context) {
	entries, err := s.leaderboard.ByRoom(c.Param("roomId"))
	if err != nil {
		respondError(c, err, "Room not found", "Failed to retrieve leaderboard")
		return
	}
	c.JSON(http.StatusOK, entries)
}
