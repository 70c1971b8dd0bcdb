package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/cors"
)

type roomCtxKey struct{}

type RoomSummary struct {
	Id      RoomId `json:"id"`
	Members int    `json:"members"`
}

type RoomList struct {
	Rooms []RoomSummary `json:"rooms"`
}

type RoomMessageList struct {
	RoomId   RoomId   `json:"roomId"`
	Messages []string `json:"messages"`
}

type RoomUserList struct {
	RoomId RoomId   `json:"roomId"`
	Users  []string `json:"users"`
}

type PostMessageRequest struct {
	Message string `json:"message"`
}

// ApiServer exposes the rooms over HTTP next to the line protocol.
type ApiServer struct {
	config     *Config
	chatServer *ChatServer
	metrics    *Metrics
	logger     *log.Logger

	server   *http.Server
	listener net.Listener
}

func NewApiServer(config *Config, chatServer *ChatServer, metrics *Metrics, logger *log.Logger) *ApiServer {
	return &ApiServer{
		config:     config,
		chatServer: chatServer,
		metrics:    metrics,
		logger:     logger,
	}
}

// Listen binds the API address. Start calls it when it has not run yet.
func (s *ApiServer) Listen() error {
	if s.listener != nil {
		return fmt.Errorf("server already started")
	}
	listener, err := net.Listen("tcp", s.config.ApiAddress())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.ApiAddress(), err)
	}
	s.listener = listener
	s.server = s.buildServer()
	return nil
}

// Start serves HTTP until Stop is called. It returns nil after a clean stop.
func (s *ApiServer) Start() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.logger.Printf("api server listening on %s", s.listener.Addr())
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *ApiServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("could not shut down api server: %w", err)
	}
	return nil
}

func (s *ApiServer) buildServer() *http.Server {
	return &http.Server{
		Handler:           s.buildHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *ApiServer) buildHandler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.config.CORSAllow,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.buildRouter())
}

func (s *ApiServer) buildRouter() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, "ok")
	})
	router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	router.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Route("/v1/rooms", func(r chi.Router) {
			r.Get("/", s.listRooms)
			r.Route("/{roomId}", func(r chi.Router) {
				r.Use(s.roomCtx)
				r.Get("/messages", s.getRoomMessages)
				r.Post("/messages", s.postRoomMessage)
				r.Get("/users", s.getRoomUsers)
			})
		})
	})
	return router
}

// roomCtx resolves {roomId} and stores the room id on the request context.
func (s *ApiServer) roomCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roomId, err := ParseRoomId(chi.URLParam(r, "roomId"))
		if err != nil {
			render.Render(w, r, ApiErrBadRequestRoomId)
			return
		}
		if _, err := s.chatServer.registry.Get(roomId); err != nil {
			render.Render(w, r, ApiErrRoomNotFound)
			return
		}
		ctx := context.WithValue(r.Context(), roomCtxKey{}, roomId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func roomIdFromContext(ctx context.Context) RoomId {
	return ctx.Value(roomCtxKey{}).(RoomId)
}

func (s *ApiServer) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.chatServer.Rooms()
	summaries := make([]RoomSummary, len(rooms))
	for i, room := range rooms {
		summaries[i] = RoomSummary{Id: room.Id, Members: room.MemberCount()}
	}
	render.JSON(w, r, RoomList{Rooms: summaries})
}

func (s *ApiServer) getRoomMessages(w http.ResponseWriter, r *http.Request) {
	roomId := roomIdFromContext(r.Context())
	messages, err := s.chatServer.GetRoomMessages(roomId)
	if err != nil {
		s.renderChatError(w, r, err)
		return
	}
	render.JSON(w, r, RoomMessageList{RoomId: roomId, Messages: messages})
}

func (s *ApiServer) postRoomMessage(w http.ResponseWriter, r *http.Request) {
	roomId := roomIdFromContext(r.Context())
	var body PostMessageRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		render.Render(w, r, ApiErrBadRequest(err))
		return
	}
	if body.Message == "" {
		render.Render(w, r, ApiErrMessageRequired)
		return
	}
	if strings.ContainsAny(body.Message, "\r\n") {
		render.Render(w, r, ApiErrInvalidMessage)
		return
	}
	if err := s.chatServer.PostMessageToRoom(roomId, body.Message); err != nil {
		s.renderChatError(w, r, err)
		return
	}
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, body)
}

func (s *ApiServer) getRoomUsers(w http.ResponseWriter, r *http.Request) {
	roomId := roomIdFromContext(r.Context())
	users, err := s.chatServer.GetRoomUsers(roomId)
	if err != nil {
		s.renderChatError(w, r, err)
		return
	}
	render.JSON(w, r, RoomUserList{RoomId: roomId, Users: users})
}

func (s *ApiServer) renderChatError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidRoom):
		render.Render(w, r, ApiErrRoomNotFound)
	case errors.Is(err, ErrInvalidMessage):
		render.Render(w, r, ApiErrInvalidMessage)
	default:
		s.logger.Printf("api request %s failed: %v", middleware.GetReqID(r.Context()), err)
		render.Render(w, r, ApiErrUnexpected(err))
	}
}
