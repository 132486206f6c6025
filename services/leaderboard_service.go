// services/leaderboard_service.go
package services

import (
	"github.com/wfunc/gamebackend/models"
	"github.com/wfunc/gamebackend/persistence"
)

type LeaderboardService struct {
	db persistence.Database
}

func NewLeaderboardService(db persistence.Database) *LeaderboardService {
	return &LeaderboardService{db: db}
}

// AddEntry 写入一条战绩
func (s *LeaderboardService) AddEntry(entry *models.LeaderboardEntry) (*models.LeaderboardEntry, error) {
	if entry.WalletAddress == "" {
		return nil, ErrMissingFields
	}
	return s.db.InsertLeaderboardEntry(entry)
}

// ByWallet 按钱包查询战绩. 空结果不是错误.
func (s *LeaderboardService) ByWallet(walletAddress string) ([]models.LeaderboardEntry, error) {
	return s.db.FindLeaderboardByWallet(walletAddress)
}

// ByRoom 按房间查询战绩. 空结果不是错误.
func (s *LeaderboardService) ByRoom(roomID string) ([]models.LeaderboardEntry, error) {
	return s.db.FindLeaderboardByRoom(roomID)
}
