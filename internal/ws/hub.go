// Package ws рассылает события списка отзывов подписчикам по WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Capstonepdm/Katipudroid/internal/dto"
	"github.com/Capstonepdm/Katipudroid/internal/logger"
	"github.com/Capstonepdm/Katipudroid/internal/models"
)

// Hub управляет всеми WebSocket клиентами.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	log        *logrus.Entry
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 32),
		done:       make(chan struct{}),
		log:        logger.WithComponent("ws"),
	}
}

// Run запускает главный цикл хаба. При отмене ctx закрывает всех клиентов.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.mu.Lock()
		for client := range h.clients {
			delete(h.clients, client)
			close(client.send)
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case payload := <-h.broadcast:
			h.send(payload)
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// publish ставит сообщение в очередь рассылки. Если очередь переполнена,
// событие отбрасывается: список всё равно перечитывается клиентом.
func (h *Hub) publish(event string, msg any) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}

	select {
	case h.broadcast <- raw:
	case <-h.done:
	default:
		h.log.WithField("event", event).Warn("очередь рассылки переполнена, событие отброшено")
	}
	return nil
}

// FeedbackCreated рассылает новый отзыв в публичном виде (без email).
func (h *Hub) FeedbackCreated(f *models.Feedback) {
	msg := dto.FeedbackEvent{Type: dto.EventFeedbackCreated, Data: dto.NewFeedbackResponse(f)}
	if err := h.publish(msg.Type, msg); err != nil {
		h.log.WithError(err).Warn("не удалось разослать отзыв")
	}
}

// ClientCount возвращает число подключённых клиентов.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) send(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// медленный клиент
			delete(h.clients, client)
			close(client.send)
		}
	}
}
