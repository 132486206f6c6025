// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/gamebackend/models"
)

// Database 数据库接口
// One method per store round trip; operation semantics (validation,
// conflict policy, the rooms-played join) live in the services layer.
type Database interface {
	// users
	GetUser(walletAddress string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	UpsertUsername(walletAddress, username string) (*models.User, error)
	UpsertStakedStatus(walletAddress string, isStaked bool) (*models.User, error)
	UpdateUserScore(walletAddress string, kills, score int) (*models.User, error)
	UpdateCurrentRoom(walletAddress, currentRoom string) (*models.User, error)
	FindUsersByWallets(walletAddresses []string) ([]models.User, error)

	// rooms
	AddRoomMember(roomID, walletAddress string) (*models.Room, error)
	GetRoom(roomID string) (*models.Room, error)
	FindRoomsByMember(walletAddress string) ([]models.Room, error)

	// staking history (append-only)
	InsertStakingRecord(walletAddress string, amount float64) (*models.StakingRecord, error)
	FindStakingRecords(walletAddress string) ([]models.StakingRecord, error)

	// leaderboard (append-only)
	InsertLeaderboardEntry(entry *models.LeaderboardEntry) (*models.LeaderboardEntry, error)
	FindLeaderboardByWallet(walletAddress string) ([]models.LeaderboardEntry, error)
	FindLeaderboardByRoom(roomID string) ([]models.LeaderboardEntry, error)

	Ping() error
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
	ErrDuplicateKey   = fmt.Errorf("duplicate key")
)
