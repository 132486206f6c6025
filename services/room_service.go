// services/room_service.go
package services

import (
	"github.com/wfunc/gamebackend/models"
	"github.com/wfunc/gamebackend/persistence"
)

type RoomService struct {
	db persistence.Database
}

func NewRoomService(db persistence.Database) *RoomService {
	return &RoomService{db: db}
}

// Join 加入房间
// Creates the room on first join; rejoining is a no-op for membership.
func (s *RoomService) Join(roomID, walletAddress string) (*models.Room, error) {
	if roomID == "" || walletAddress == "" {
		return nil, ErrMissingFields
	}
	return s.db.AddRoomMember(roomID, walletAddress)
}

// Get 查询房间
func (s *RoomService) Get(roomID string) (*models.Room, error) {
	return s.db.GetRoom(roomID)
}
