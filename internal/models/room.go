package models

// DefaultRoomType is assigned when a room is saved without a type.
const DefaultRoomType = "Lecture"

// Room is a bookable teaching space.
type Room struct {
	ID             string `db:"id" json:"id"`
	BuildingNumber string `db:"building_number" json:"building_number"`
	RoomType       string `db:"room_type" json:"room_type"`
}

// RoomFilter captures filtering criteria for listing rooms.
type RoomFilter struct {
	RoomType string
	Page     int
	PageSize int
}
