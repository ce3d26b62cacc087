package protocol

import (
	"encoding/json"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/SirOfGears/Net-Chat/domain"
)

var validate = validator.New()

// Envelope is one inbound frame on the real-time channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// JoinPayload is the data of an inbound join frame.
type JoinPayload struct {
	Sala     string `json:"sala" validate:"required"`
	Username string `json:"username" validate:"required"`
}

// MessagePayload is the data of an inbound mensagem frame. Which fields are
// required depends on how the payload classifies; see Handle.
type MessagePayload struct {
	Sala     string `json:"sala" validate:"required"`
	Username string `json:"username"`
	Text     string `json:"text"`
	Type     string `json:"type"`
	Base64   string `json:"base64"`
}

type stickerFields struct {
	Username string `validate:"required"`
	Base64   string `validate:"required"`
}

type textFields struct {
	Username string `validate:"required"`
	Text     string `validate:"required"`
}

// Handler classifies inbound frames and routes them to the registry.
type Handler struct {
	registry domain.Registry
}

func NewHandler(r domain.Registry) *Handler {
	return &Handler{registry: r}
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("invalid frame", "clientId", conn.ID(), "error", err)
		return
	}

	switch env.Event {
	case domain.EventJoin:
		h.handleJoin(conn, env.Data)
	case domain.EventMessage:
		h.handleMessage(conn, env.Data)
	default:
		slog.Warn("unknown event", "clientId", conn.ID(), "event", env.Event)
	}
}

func (h *Handler) handleJoin(conn domain.Connection, data json.RawMessage) {
	var p JoinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("join rejected", "clientId", conn.ID(), "error", err)
		return
	}
	if err := validate.Struct(p); err != nil {
		slog.Warn("join rejected", "clientId", conn.ID(), "error", domain.ErrMalformedMessage, "cause", err)
		return
	}

	h.registry.Join(conn, p.Sala, p.Username)
}

// handleMessage classifies in fixed priority order: teardown command first,
// then sticker, then text as the fallback. A payload failing the validation
// of its classified variant is dropped, never propagated.
func (h *Handler) handleMessage(conn domain.Connection, data json.RawMessage) {
	var p MessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("message rejected", "clientId", conn.ID(), "error", err)
		return
	}
	if err := validate.Var(p.Sala, "required"); err != nil {
		slog.Warn("message rejected", "clientId", conn.ID(), "error", domain.ErrMalformedMessage, "cause", err)
		return
	}

	if p.Text == domain.TeardownCommand {
		h.registry.Teardown(p.Sala)
		return
	}

	if p.Type == string(domain.TypeSticker) {
		if err := validate.Struct(stickerFields{Username: p.Username, Base64: p.Base64}); err != nil {
			slog.Warn("sticker rejected", "clientId", conn.ID(), "room", p.Sala, "error", domain.ErrMalformedMessage, "cause", err)
			return
		}
		h.registry.Post(p.Sala, domain.Sticker(p.Username, p.Base64))
		return
	}

	if err := validate.Struct(textFields{Username: p.Username, Text: p.Text}); err != nil {
		slog.Warn("text rejected", "clientId", conn.ID(), "room", p.Sala, "error", domain.ErrMalformedMessage, "cause", err)
		return
	}
	h.registry.Post(p.Sala, domain.Text(p.Username, p.Text))
}
