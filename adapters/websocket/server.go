package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/cocoa-fruit/teacher/domain"
	"github.com/satriahrh/cocoa-fruit/teacher/usecase"
	"github.com/satriahrh/cocoa-fruit/teacher/utils/log"
)

type Server struct {
	upgrader      websocket.Upgrader
	svc           *usecase.TutorService
	messageBroker domain.MessageBroker
	hub           *Hub
}

func NewServer(svc *usecase.TutorService, messageBroker domain.MessageBroker) *Server {
	return &Server{
		upgrader:      websocket.Upgrader{CheckOrigin: sameOrigin},
		svc:           svc,
		messageBroker: messageBroker,
		hub:           NewHub(),
	}
}

// sameOrigin accepts requests without an Origin header (non-browser clients)
// and browser requests from the page this server served.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// ListenState forwards published tutor snapshots to every websocket client
// until ctx is done.
func (s *Server) ListenState(ctx context.Context) error {
	messageChan, err := s.messageBroker.Subscribe(ctx, domain.StateTopic, "")
	if err != nil {
		return err
	}

	log.WithCtx(ctx).Info("WebSocket server listening to tutor state")

	for {
		select {
		case msg, ok := <-messageChan:
			if !ok {
				log.WithCtx(ctx).Info("Tutor state listener stopped")
				return nil
			}
			s.hub.Broadcast(msg.Payload)
			log.WithCtx(ctx).Debug("Broadcasted tutor state",
				zap.Int("clients", s.hub.ClientCount()),
				zap.Int("payload_size", len(msg.Payload)))

		case <-ctx.Done():
			log.WithCtx(ctx).Info("Tutor state listener stopped")
			return nil
		}
	}
}

func (s *Server) currentState() ([]byte, error) {
	return json.Marshal(s.svc.Snapshot())
}
