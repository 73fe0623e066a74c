// Manual end-to-end check against a running server:
//
//	go run ./test -question "What is a linked list?" -semester 2nd
//	go run ./test -audio sample/question.raw
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type snapshot struct {
	Semester string `json:"semester"`
	Question string `json:"question"`
	Result   string `json:"result"`
	Failed   bool   `json:"failed"`
	Status   string `json:"status"`
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base URL")
	question := flag.String("question", "", "question to ask")
	semester := flag.String("semester", "1st", "semester, 1st to 8th")
	audio := flag.String("audio", "", "16kHz LINEAR16 recording of the question")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Minute}

	fmt.Println("🚀 Starting ask smoke test...")

	if *audio != "" {
		data, err := os.ReadFile(*audio)
		if err != nil {
			log.Fatalf("Failed to read audio file: %v", err)
		}
		fmt.Printf("📁 Loaded audio file: %s (%d bytes)\n", *audio, len(data))

		snap, err := post(client, *baseURL+"/api/v1/transcribe", "audio/l16", data)
		if err != nil {
			log.Fatalf("Failed to transcribe: %v", err)
		}
		fmt.Printf("🎙️  Transcribed question: %q\n", snap.Question)
		*question = snap.Question
	}

	body, err := json.Marshal(map[string]string{"semester": *semester, "question": *question})
	if err != nil {
		log.Fatalf("Failed to encode request: %v", err)
	}

	startTime := time.Now()
	snap, err := post(client, *baseURL+"/api/v1/ask", "application/json", body)
	if err != nil {
		log.Fatalf("Failed to ask: %v", err)
	}
	fmt.Printf("⏱️  Request completed in %v\n", time.Since(startTime))
	fmt.Printf("📊 Status: %s, failed: %v\n", snap.Status, snap.Failed)
	fmt.Printf("📄 Result:\n%s\n", snap.Result)

	if snap.Failed {
		os.Exit(1)
	}
	fmt.Println("✅ Ask smoke test completed successfully!")
}

func post(client *http.Client, url, contentType string, payload []byte) (snapshot, error) {
	resp, err := client.Post(url, contentType, bytes.NewReader(payload))
	if err != nil {
		return snapshot{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return snapshot{}, fmt.Errorf("failed to read response body: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(respBody, &snap); err != nil {
		return snapshot{}, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode != http.StatusOK {
		return snap, fmt.Errorf("status %d: %s", resp.StatusCode, snap.Result)
	}
	return snap, nil
}
