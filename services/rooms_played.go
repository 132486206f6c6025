// services/rooms_played.go
package services

import (
	"github.com/wfunc/gamebackend/models"
)

// UnknownUsername is reported for wallets without a profile, or with a
// profile that never went through setup.
const UnknownUsername = "Unknown"

// EnrichRooms merges already-fetched rooms and users into the
// rooms-played view: one record per room, member order preserved,
// every wallet resolved to a username or UnknownUsername.
func EnrichRooms(rooms []models.Room, users []models.User) []models.RoomPlayed {
	usernames := make(map[string]string, len(users))
	for _, user := range users {
		if user.Username != "" {
			usernames[user.WalletAddress] = user.Username
		}
	}

	enriched := make([]models.RoomPlayed, 0, len(rooms))
	for _, room := range rooms {
		members := make([]models.RoomMember, 0, len(room.Users))
		for _, wallet := range room.Users {
			name, ok := usernames[wallet]
			if !ok {
				name = UnknownUsername
			}
			members = append(members, models.RoomMember{
				WalletAddress: wallet,
				Username:      name,
			})
		}
		enriched = append(enriched, models.RoomPlayed{
			RoomID: room.RoomID,
			Users:  members,
		})
	}
	return enriched
}
