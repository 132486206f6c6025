// models/models.go
package models

import (
	"time"
)

// User is the wire representation of a player profile.
// Username is empty until the player has gone through setup.
type User struct {
	WalletAddress string `json:"walletAddress"`
	Username      string `json:"username"`
	IsStaked      bool   `json:"isStaked"`
	Kills         int    `json:"kills"`
	Score         int    `json:"score"`
	CurrentRoom   string `json:"currentRoom"`
}

// StakeStatus is the projection returned by the is-staked lookup.
type StakeStatus struct {
	IsStaked bool `json:"isStaked"`
}

// Room is the wire representation of a room and its member wallets.
// Users is deduplicated and kept in join order.
type Room struct {
	RoomID string   `json:"roomId"`
	Users  []string `json:"users"`
}

// StakingRecord is one entry of the append-only staking log.
type StakingRecord struct {
	WalletAddress string    `json:"walletAddress"`
	Amount        float64   `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}

// LeaderboardEntry is one per-game result row.
type LeaderboardEntry struct {
	WalletAddress string    `json:"walletAddress"`
	Kills         int       `json:"kills"`
	Score         int       `json:"score"`
	RoomID        string    `json:"roomId"`
	Username      string    `json:"username"`
	GameTime      float64   `json:"gameTime"`
	CreatedAt     time.Time `json:"createdAt"`
}

// RoomMember pairs a wallet with its resolved username for the
// rooms-played enrichment output.
type RoomMember struct {
	WalletAddress string `json:"walletAddress"`
	Username      string `json:"username"`
}

// RoomPlayed is one enriched room in the rooms-played response.
type RoomPlayed struct {
	RoomID string       `json:"roomId"`
	Users  []RoomMember `json:"users"`
}
