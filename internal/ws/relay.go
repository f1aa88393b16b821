package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisRelay publishes every event on one redis channel; each instance
// subscribes and delivers to its own hub. Publishing does not deliver
// locally, the subscription does.
type RedisRelay struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
}

func NewRedisRelay(rdb *redis.Client, channel string, hub *Hub) *RedisRelay {
	return &RedisRelay{rdb: rdb, channel: channel, hub: hub}
}

func (r *RedisRelay) EmitToRoom(roomID, event string, payload any) {
	r.publish(Envelope{Event: event, Room: RoomKey(roomID), Data: payload})
}

func (r *RedisRelay) EmitToUser(userID, event string, payload any) {
	r.publish(Envelope{Event: event, Room: UserKey(userID), Data: payload})
}

func (r *RedisRelay) EmitToProject(projectID, event string, payload any) {
	r.publish(Envelope{Event: event, Room: ProjectKey(projectID), Data: payload})
}

func (r *RedisRelay) BroadcastAll(event string, payload any) {
	r.publish(Envelope{Event: event, Data: payload})
}

// Evictions travel on the same channel so every instance drops its own
// sockets.
func (r *RedisRelay) EvictFromRoom(roomID, userID string) {
	r.publishEvict(RoomKey(roomID), userID)
}

func (r *RedisRelay) EvictFromProject(projectID, userID string) {
	r.publishEvict(ProjectKey(projectID), userID)
}

func (r *RedisRelay) publishEvict(room, userID string) {
	b, err := json.Marshal(relayMessage{Event: evictEvent, Room: room, EvictUser: &userID})
	if err != nil {
		log.Error().Err(err).Str("room", room).Msg("marshal eviction")
		return
	}
	if err := r.rdb.Publish(context.Background(), r.channel, b).Err(); err != nil {
		log.Warn().Err(err).Str("room", room).Msg("redis publish failed, evicting locally")
		r.hub.Evict(room, userID)
	}
}

func (r *RedisRelay) publish(env Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("event", env.Event).Msg("marshal realtime event")
		return
	}
	if err := r.rdb.Publish(context.Background(), r.channel, b).Err(); err != nil {
		// keep local subscribers working while redis is away
		log.Warn().Err(err).Str("event", env.Event).Msg("redis publish failed, delivering locally")
		r.hub.deliverRaw(env.Room, env.Event, b)
	}
}

// Run subscribes until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	log.Info().Str("channel", r.channel).Msg("realtime relay subscribed")
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.deliver(msg.Payload)
		}
	}
}

const evictEvent = "_evict"

// relayMessage is the part of a relayed payload the subscriber routes on.
// EvictUser is only set on evictions, where an empty value means everyone.
type relayMessage struct {
	Event     string  `json:"event"`
	Room      string  `json:"room,omitempty"`
	EvictUser *string `json:"evict_user,omitempty"`
}

func (r *RedisRelay) deliver(raw string) {
	var msg relayMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil || msg.Event == "" {
		log.Warn().Err(err).Msg("ignoring malformed relay message")
		return
	}
	if msg.EvictUser != nil {
		if msg.Event == evictEvent && msg.Room != "" {
			r.hub.Evict(msg.Room, *msg.EvictUser)
		}
		return
	}
	r.hub.deliverRaw(msg.Room, msg.Event, []byte(raw))
}
