package chatws

import (
	"context"
	"encoding/json"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/krasol/hobbyhub-backend/internal/models"
	"github.com/krasol/hobbyhub-backend/internal/services"
	"github.com/rs/zerolog/log"
)

// Hub fans chat events out to every live connection of a user. It also
// implements services.Notifier, so the chat and booking services push new
// messages through it without knowing about websockets.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *delivery
}

type delivery struct {
	recipients []string
	payload    []byte
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

// Envelope is the wire frame exchanged over the socket.
type Envelope struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type sender interface {
	SendDirect(ctx context.Context, senderID, receiverID string, input services.SendMessageInput) (*models.Message, error)
	SendGroup(ctx context.Context, senderID, groupID string, input services.SendMessageInput) (*models.Message, error)
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *delivery, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case d := <-h.broadcast:
			for _, userID := range d.recipients {
				h.sendToUser(userID, d.payload)
			}
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Notify implements services.Notifier. Fire-and-forget: if the hub's queue
// is full the event is dropped and only logged.
func (h *Hub) Notify(recipientID string, message *models.Message) {
	payload, err := json.Marshal(Envelope{Type: "message", Message: message})
	if err != nil {
		log.Error().Err(err).Msg("chat hub: encode notification")
		return
	}
	select {
	case h.broadcast <- &delivery{recipients: []string{recipientID}, payload: payload}:
	default:
		log.Warn().Str("recipient", recipientID).Msg("chat hub: broadcast queue full, dropping event")
	}
}

func (h *Hub) sendToUser(userID string, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// ReadPump processes inbound frames: direct sends carry receiver_id, group
// sends carry group_id. Recipients hear about the message through the
// service's notifier (this hub); the sender gets an echo here so their other
// devices stay in sync.
func (c *Client) ReadPump(service sender) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type           string  `json:"type"`
			ReceiverID     string  `json:"receiver_id"`
			GroupID        string  `json:"group_id"`
			Text           string  `json:"text"`
			AttachmentType *string `json:"attachment_type"`
			AttachmentPath *string `json:"attachment_path"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeError(c, "invalid message payload")
			continue
		}
		if incoming.Type != "message" {
			writeError(c, "unsupported message type")
			continue
		}

		input := services.SendMessageInput{
			Text:           incoming.Text,
			AttachmentType: incoming.AttachmentType,
			AttachmentPath: incoming.AttachmentPath,
		}

		var message *models.Message
		switch {
		case incoming.GroupID != "":
			message, err = service.SendGroup(context.Background(), c.userID, incoming.GroupID, input)
		case incoming.ReceiverID != "":
			message, err = service.SendDirect(context.Background(), c.userID, incoming.ReceiverID, input)
		default:
			writeError(c, "missing receiver_id or group_id")
			continue
		}
		if err != nil {
			writeError(c, "failed to send message")
			continue
		}

		echo, err := json.Marshal(Envelope{Type: "message", Message: message})
		if err != nil {
			log.Error().Err(err).Msg("chat hub: encode echo")
			continue
		}
		c.hub.broadcast <- &delivery{recipients: []string{c.userID}, payload: echo}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func writeError(client *Client, message string) {
	payload, err := json.Marshal(Envelope{Type: "error", Error: message})
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
		client.hub.Unregister(client)
	}
}
