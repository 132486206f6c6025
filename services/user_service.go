// services/user_service.go
package services

import (
	"errors"

	"github.com/wfunc/gamebackend/models"
	"github.com/wfunc/gamebackend/persistence"
)

type UserService struct {
	db persistence.Database
}

func NewUserService(db persistence.Database) *UserService {
	return &UserService{db: db}
}

// SetupUser 创建或更新玩家资料
// The pre-check gives a clean "username taken" answer in the common
// case; the upsert itself is still guarded by the unique index, so a
// racing writer that slips past the pre-check loses with
// ErrDuplicateKey and gets mapped to the same conflict.
func (s *UserService) SetupUser(walletAddress, username string) (*models.User, error) {
	if walletAddress == "" || username == "" {
		return nil, ErrMissingFields
	}

	owner, err := s.db.GetUserByUsername(username)
	if err != nil && !errors.Is(err, persistence.ErrRecordNotFound) {
		return nil, err
	}
	if owner != nil && owner.WalletAddress != walletAddress {
		return nil, ErrUsernameTaken
	}

	user, err := s.db.UpsertUsername(walletAddress, username)
	if errors.Is(err, persistence.ErrDuplicateKey) {
		return nil, ErrUsernameTaken
	}
	return user, err
}

// UpdateStakedStatus 创建或更新质押状态
// A profile created through this path gets the schema defaults for
// kills/score/currentRoom and no username until setup runs.
func (s *UserService) UpdateStakedStatus(walletAddress string, isStaked bool) (*models.User, error) {
	return s.db.UpsertStakedStatus(walletAddress, isStaked)
}

// UpdateScore 覆盖写玩家击杀数和分数
func (s *UserService) UpdateScore(walletAddress string, kills, score int) (*models.User, error) {
	return s.db.UpdateUserScore(walletAddress, kills, score)
}

// UpdateCurrentRoom 更新玩家当前房间
func (s *UserService) UpdateCurrentRoom(walletAddress, currentRoom string) (*models.User, error) {
	if walletAddress == "" || currentRoom == "" {
		return nil, ErrMissingFields
	}
	return s.db.UpdateCurrentRoom(walletAddress, currentRoom)
}

// GetUser 查询玩家资料
func (s *UserService) GetUser(walletAddress string) (*models.User, error) {
	return s.db.GetUser(walletAddress)
}

// GetStakeStatus 查询质押状态
func (s *UserService) GetStakeStatus(walletAddress string) (*models.StakeStatus, error) {
	user, err := s.db.GetUser(walletAddress)
	if err != nil {
		return nil, err
	}
	return &models.StakeStatus{IsStaked: user.IsStaked}, nil
}

// RoomsPlayed 查询玩家参与过的房间并附带成员用户名
// Scatter-gather: the reads are independent, non-transactional
// queries, so a concurrent join or setup between them can show
// through in the result. That matches the store contract; the merge
// itself is the pure EnrichRooms.
func (s *UserService) RoomsPlayed(walletAddress string) ([]models.RoomPlayed, error) {
	rooms, err := s.db.FindRoomsByMember(walletAddress)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, persistence.ErrRecordNotFound
	}

	seen := map[string]bool{}
	wallets := []string{}
	for _, room := range rooms {
		for _, wallet := range room.Users {
			if !seen[wallet] {
				seen[wallet] = true
				wallets = append(wallets, wallet)
			}
		}
	}

	users, err := s.db.FindUsersByWallets(wallets)
	if err != nil {
		return nil, err
	}

	return EnrichRooms(rooms, users), nil
}
