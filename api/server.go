// Package api exposes the HTTP surface: the websocket endpoint, the sticker
// catalog, file uploads and a couple of operational endpoints.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/SirOfGears/Net-Chat/catalog"
	"github.com/SirOfGears/Net-Chat/codec"
	"github.com/SirOfGears/Net-Chat/domain"
	ws "github.com/SirOfGears/Net-Chat/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Server struct {
	registry  domain.Registry
	handler   domain.MessageHandler
	stickers  *catalog.Catalog
	staticDir string
	maxUpload int64

	mu      sync.Mutex
	uploads map[string]int // detected MIME type -> count
}

func NewServer(registry domain.Registry, handler domain.MessageHandler, stickers *catalog.Catalog, staticDir string, maxUpload int64) *Server {
	return &Server{
		registry:  registry,
		handler:   handler,
		stickers:  stickers,
		staticDir: staticDir,
		maxUpload: maxUpload,
		uploads:   make(map[string]int),
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/ws", s.handleSocket)
	r.Get("/stickers", s.handleStickers)
	r.Post("/upload", s.handleUpload)
	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))
	return r
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("upgrade error", "error", err)
		return
	}

	ws.NewConn(uuid.New().String(), conn, s.registry, s.handler).Start()
}

func (s *Server) handleStickers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.stickers.List())
}

// handleUpload is the synchronous attachment path. It performs the same
// append+broadcast contract as the socket path; a request without a file
// part gets the plain failure body and touches nothing.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	room := r.FormValue("room")
	username := r.FormValue("username")

	file, header, err := r.FormFile("file")
	if err != nil {
		slog.Warn("upload rejected", "room", room, "error", domain.ErrEmptyUpload)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "Nenhum arquivo enviado.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Warn("upload read failed", "room", room, "filename", header.Filename, "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "Nenhum arquivo enviado.")
		return
	}

	detected := mimetype.Detect(data).String()
	s.mu.Lock()
	s.uploads[detected]++
	s.mu.Unlock()
	slog.Info("file uploaded", "room", room, "username", username,
		"filename", header.Filename, "bytes", len(data), "mime", detected)

	s.registry.Post(room, domain.File(username, header.Filename, codec.EncodeAttachment(data)))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	rooms, clients := s.registry.Stats()

	s.mu.Lock()
	uploads := make(map[string]int, len(s.uploads))
	for k, v := range s.uploads {
		uploads[k] = v
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"rooms":   rooms,
		"clients": clients,
		"uploads": uploads,
	})
}
