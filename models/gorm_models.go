// models/gorm_models.go
package models

import (
	"time"
)

// GormUser 玩家资料表
type GormUser struct {
	ID            uint    `gorm:"primaryKey"`
	WalletAddress string  `gorm:"uniqueIndex;not null"`
	Username      *string `gorm:"uniqueIndex"`
	IsStaked      bool    `gorm:"default:false"`
	Kills         int     `gorm:"default:0"`
	Score         int     `gorm:"default:0"`
	CurrentRoom   string  `gorm:"default:''"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (GormUser) TableName() string { return "users" }

// ToView converts a row to its wire representation. A NULL username
// (profile created through the stake path, never set up) reads as "".
func (u *GormUser) ToView() *User {
	name := ""
	if u.Username != nil {
		name = *u.Username
	}
	return &User{
		WalletAddress: u.WalletAddress,
		Username:      name,
		IsStaked:      u.IsStaked,
		Kills:         u.Kills,
		Score:         u.Score,
		CurrentRoom:   u.CurrentRoom,
	}
}

// GormRoom 房间表
type GormRoom struct {
	ID        uint   `gorm:"primaryKey"`
	RoomID    string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (GormRoom) TableName() string { return "rooms" }

// GormRoomMember 房间成员表
// The composite unique index is what makes joinRoom a set-union:
// a second insert of the same (room, wallet) pair is a no-op.
// Row id order preserves join order for the membership list.
type GormRoomMember struct {
	ID            uint   `gorm:"primaryKey"`
	RoomID        string `gorm:"index:idx_room_wallet,unique;not null"`
	WalletAddress string `gorm:"index:idx_room_wallet,unique;not null"`
	CreatedAt     time.Time
}

func (GormRoomMember) TableName() string { return "room_members" }

// GormStakingRecord 质押流水表 (append-only)
type GormStakingRecord struct {
	ID            uint   `gorm:"primaryKey"`
	WalletAddress string `gorm:"index;not null"`
	Amount        float64
	CreatedAt     time.Time
}

func (GormStakingRecord) TableName() string { return "staking_history" }

func (r *GormStakingRecord) ToView() *StakingRecord {
	return &StakingRecord{
		WalletAddress: r.WalletAddress,
		Amount:        r.Amount,
		Timestamp:     r.CreatedAt,
	}
}

// GormLeaderboardEntry 战绩表 (append-only)
type GormLeaderboardEntry struct {
	ID            uint   `gorm:"primaryKey"`
	WalletAddress string `gorm:"index;not null"`
	Kills         int
	Score         int
	RoomID        string `gorm:"index;not null"`
	Username      string
	GameTime      float64
	CreatedAt     time.Time
}

func (GormLeaderboardEntry) TableName() string { return "leaderboard" }

func (e *GormLeaderboardEntry) ToView() *LeaderboardEntry {
	return &LeaderboardEntry{
		WalletAddress: e.WalletAddress,
		Kills:         e.Kills,
		Score:         e.Score,
		RoomID:        e.RoomID,
		Username:      e.Username,
		GameTime:      e.GameTime,
		CreatedAt:     e.CreatedAt,
	}
}
