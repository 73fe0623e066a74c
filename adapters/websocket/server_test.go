package websocket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/cocoa-fruit/teacher/adapters/message_broker"
	"github.com/satriahrh/cocoa-fruit/teacher/adapters/websocket"
	"github.com/satriahrh/cocoa-fruit/teacher/domain"
	"github.com/satriahrh/cocoa-fruit/teacher/usecase"
)

func readSnapshot(t *testing.T, conn *gorilla.Conn) usecase.Snapshot {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var snap usecase.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	return snap
}

func TestServerStreamsState(t *testing.T) {
	broker := message_broker.NewChannelMessageBroker()
	t.Cleanup(func() { broker.Close() })

	tutor := usecase.NewTutorService(usecase.Options{
		InitErr: domain.ErrMissingAPIKey,
		Context: domain.PromptContext{Semester: domain.SecondSemester},
		Prompts: []string{"Explain the basics:"},
		Broker:  broker,
	})
	server := websocket.NewServer(tutor, broker)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go server.ListenState(ctx)
	require.Eventually(t, func() bool { return broker.GetTopicCount() == 1 }, time.Second, 10*time.Millisecond)

	e := echo.New()
	e.GET("/ws", server.Handler)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	first := readSnapshot(t, conn)
	assert.Equal(t, usecase.StatusUnavailable, first.Status)
	assert.Equal(t, usecase.MsgMissingAPIKey, first.Result)
	assert.Equal(t, domain.SecondSemester, first.Semester)
	assert.Equal(t, 1, server.GetHub().ClientCount())

	_, err = tutor.SelectPrompt(context.Background(), "Explain the basics:")
	require.NoError(t, err)

	update := readSnapshot(t, conn)
	assert.Equal(t, "Explain the basics:", update.Question)
	assert.Equal(t, "Explain the basics:", update.SelectedPrompt)
}

func TestServerRejectsForeignOrigin(t *testing.T) {
	broker := message_broker.NewChannelMessageBroker()
	tutor := usecase.NewTutorService(usecase.Options{InitErr: domain.ErrMissingAPIKey})
	server := websocket.NewServer(tutor, broker)

	e := echo.New()
	e.GET("/ws", server.Handler)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := gorilla.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHubCloseAll(t *testing.T) {
	hub := websocket.NewHub()
	assert.Zero(t, hub.ClientCount())
	hub.CloseAll()
	assert.Zero(t, hub.ClientCount())
}
