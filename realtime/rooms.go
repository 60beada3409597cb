package realtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrRoomStore wraps Redis failures of room membership.
var ErrRoomStore = errors.New("room store error")

// RoomStore keeps room membership in Redis sets at room:<room>:members, so
// every instance sees the same members.
type RoomStore struct {
	redis redis.UniversalClient
}

func NewRoomStore(client redis.UniversalClient) *RoomStore {
	return &RoomStore{redis: client}
}

func roomKey(room string) string {
	return "room:" + room + ":members"
}

// Join adds userID to room.
func (s *RoomStore) Join(ctx context.Context, room, userID string) error {
	if err := s.redis.SAdd(ctx, roomKey(room), userID).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRoomStore, err)
	}
	return nil
}

// Leave removes userID from room. Leaving a room one is not in succeeds.
func (s *RoomStore) Leave(ctx context.Context, room, userID string) error {
	if err := s.redis.SRem(ctx, roomKey(room), userID).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRoomStore, err)
	}
	return nil
}

// Members returns the current member set of room.
func (s *RoomStore) Members(ctx context.Context, room string) ([]string, error) {
	members, err := s.redis.SMembers(ctx, roomKey(room)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoomStore, err)
	}
	return members, nil
}
