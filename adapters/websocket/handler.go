package websocket

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/cocoa-fruit/teacher/utils/log"
)

// Handler upgrades "/ws" requests and streams tutor snapshots, starting with
// the current one, until the connection closes.
func (s *Server) Handler(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(c.Request().Context(), conn)
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	client.Run()

	state, err := s.currentState()
	if err != nil {
		log.WithCtx(client.Context()).Error("Error encoding tutor state", zap.Error(err))
	} else if err := client.SendMessage(state); err != nil {
		return nil
	}

	<-client.Context().Done()

	return nil
}
