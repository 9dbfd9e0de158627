package server

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"ripple/internal/models"
	"ripple/internal/notifications"
	"ripple/internal/social"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// subscribeFrame is the inbound control frame for the subscription socket.
type subscribeFrame struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// snapshotFrame is the outbound frame: one full collection snapshot.
type snapshotFrame struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
}

// SubscriptionHandler upgrades the connection and serves live collection
// snapshots. Clients send {"action":"subscribe","topic":"posts"} style
// frames; each subscribed topic delivers its current snapshot immediately
// and again after every underlying change. Disconnect tears down every
// subscription the socket holds.
func (s *Server) SubscriptionHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userIDVal := conn.Locals("userID")
		userID, ok := userIDVal.(string)
		if !ok || userID == "" {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		var mu sync.Mutex
		active := make(map[string]func())

		client.IncomingHandler = func(cl *notifications.Client, message []byte) {
			var frame subscribeFrame
			if err := json.Unmarshal(message, &frame); err != nil {
				return
			}

			switch frame.Action {
			case "subscribe":
				mu.Lock()
				_, exists := active[frame.Topic]
				mu.Unlock()
				if exists {
					return
				}

				stop, err := s.subscribeTopic(cl, userID, frame.Topic)
				if err != nil {
					resp, _ := json.Marshal(fiber.Map{"topic": frame.Topic, "error": err.Error()})
					cl.TrySend(resp)
					return
				}

				mu.Lock()
				active[frame.Topic] = stop
				mu.Unlock()
				s.hub.AddTeardown(cl, stop)

			case "unsubscribe":
				mu.Lock()
				stop := active[frame.Topic]
				delete(active, frame.Topic)
				mu.Unlock()
				if stop != nil {
					stop()
				}
			}
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// subscribeTopic wires one topic name to its broker subscription. The
// deliver callback marshals the snapshot and hands it to the client's
// send buffer without blocking the broker goroutine.
func (s *Server) subscribeTopic(cl *notifications.Client, userID, topic string) (func(), error) {
	send := func(payload interface{}) {
		data, err := json.Marshal(snapshotFrame{Topic: topic, Payload: payload})
		if err != nil {
			return
		}
		cl.TrySend(data)
	}

	name, arg := splitTopic(topic)
	switch name {
	case "posts":
		return s.postRepo.Subscribe(func(posts []*models.Post) { send(posts) }), nil
	case "products":
		return s.productRepo.Subscribe(func(products []*models.Product) { send(products) }), nil
	case "communities":
		return s.communityRepo.Subscribe(func(communities []*models.Community) { send(communities) }), nil
	case "vibes":
		return s.vibeRepo.Subscribe(func(vibes []*models.Vibe) { send(vibes) }), nil
	case "comments":
		if arg == "" {
			return nil, models.NewValidationError("comments topic requires a post id")
		}
		return s.commentRepo.Subscribe(arg, func(comments []*models.Comment) { send(comments) }), nil
	case "notifications":
		return s.notifRepo.Subscribe(userID, func(notifs []*models.Notification) { send(notifs) }), nil
	case "follow-counts":
		if arg == "" {
			arg = userID
		}
		return s.graph.SubscribeCounts(arg, func(counts social.Counts) { send(counts) }), nil
	case "messages":
		if arg == "" {
			return nil, models.NewValidationError("messages topic requires a chat id")
		}
		chat, err := s.chatRepo.GetByID(context.Background(), arg)
		if err != nil {
			return nil, err
		}
		if !chat.HasMember(userID) {
			return nil, models.NewUnauthorizedError("not a member of this chat")
		}
		return s.chatRepo.SubscribeMessages(arg, func(messages []*models.Message) { send(messages) }), nil
	default:
		return nil, models.NewValidationError("unknown topic")
	}
}

func splitTopic(topic string) (name, arg string) {
	if i := strings.IndexByte(topic, ':'); i >= 0 {
		return topic[:i], topic[i+1:]
	}
	return topic, ""
}
