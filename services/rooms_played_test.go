package services

import (
	"reflect"
	"testing"

	"github.com/wfunc/gamebackend/models"
)

func TestEnrichRooms(t *testing.T) {
	rooms := []models.Room{
		{RoomID: "room1", Users: []string{"0xA", "0xB", "0xC"}},
		{RoomID: "room2", Users: []string{"0xB"}},
	}
	users := []models.User{
		{WalletAddress: "0xA", Username: "alice"},
		{WalletAddress: "0xB", Username: "bob"},
		// 0xC has no profile at all.
	}

	got := EnrichRooms(rooms, users)

	want := []models.RoomPlayed{
		{RoomID: "room1", Users: []models.RoomMember{
			{WalletAddress: "0xA", Username: "alice"},
			{WalletAddress: "0xB", Username: "bob"},
			{WalletAddress: "0xC", Username: "Unknown"},
		}},
		{RoomID: "room2", Users: []models.RoomMember{
			{WalletAddress: "0xB", Username: "bob"},
		}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EnrichRooms() = %+v, want %+v", got, want)
	}
}

func TestEnrichRooms_EmptyUsernameIsUnknown(t *testing.T) {
	rooms := []models.Room{{RoomID: "room1", Users: []string{"0xA"}}}
	// Profile exists but never went through setup.
	users := []models.User{{WalletAddress: "0xA", Username: ""}}

	got := EnrichRooms(rooms, users)
	if got[0].Users[0].Username != UnknownUsername {
		t.Errorf("expected %q, got %q", UnknownUsername, got[0].Users[0].Username)
	}
}

func TestEnrichRooms_PreservesMemberOrder(t *testing.T) {
	rooms := []models.Room{{RoomID: "room1", Users: []string{"0xC", "0xA", "0xB"}}}
	users := []models.User{
		{WalletAddress: "0xA", Username: "alice"},
		{WalletAddress: "0xB", Username: "bob"},
		{WalletAddress: "0xC", Username: "carol"},
	}

	got := EnrichRooms(rooms, users)
	order := []string{}
	for _, m := range got[0].Users {
		order = append(order, m.WalletAddress)
	}
	if !reflect.DeepEqual(order, []string{"0xC", "0xA", "0xB"}) {
		t.Errorf("member order not preserved: %v", order)
	}
}
