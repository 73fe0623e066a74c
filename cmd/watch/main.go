// Command watch prints every tutor state change pushed over the websocket.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/cocoa-fruit/teacher/usecase"
	"github.com/satriahrh/cocoa-fruit/teacher/utils/log"
)

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "tutor websocket endpoint")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.With(zap.Error(err)).Fatal("Failed to connect to server")
	}
	defer conn.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.With(zap.Error(err)).Info("Connection ended")
			}
			return
		}

		var snap usecase.Snapshot
		if err := json.Unmarshal(message, &snap); err != nil {
			log.With(zap.Error(err)).Warn("Skipping unreadable message")
			continue
		}
		fmt.Print(describe(snap))
	}
}

func describe(snap usecase.Snapshot) string {
	out := fmt.Sprintf("[%s] %s | %q\n", snap.Status, snap.Semester.Label(), snap.Question)
	if snap.Result != "" {
		out += snap.Result + "\n"
	}
	return out
}
