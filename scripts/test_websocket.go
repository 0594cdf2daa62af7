//go:build ignore

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

type messageResponse struct {
	SessionID string `json:"session_id"`
	StreamURL string `json:"stream_url"`
}

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: go run test_websocket.go <course_id> <message> <token>")
		fmt.Println("Example: go run test_websocket.go 42 \"What is a derivative?\" jwt_token_here")
		os.Exit(1)
	}

	courseID, err := strconv.ParseInt(os.Args[1], 10, 64)
	if err != nil {
		log.Fatal("course_id:", err)
	}

	message := os.Args[2]
	token := os.Args[3]

	// send the message through the REST API first
	body, _ := json.Marshal(map[string]any{"course_id": courseID, "message": message})

	req, err := http.NewRequest(http.MethodPost, "http://localhost:8080/api/v1/chat/messages", bytes.NewReader(body))
	if err != nil {
		log.Fatal("request:", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal("send:", err)
	}
	defer resp.Body.Close()

	var sent messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&sent); err != nil || resp.StatusCode != http.StatusOK {
		log.Fatalf("send failed with status %d: %v", resp.StatusCode, err)
	}

	fmt.Printf("Message accepted, session %s\n", sent.SessionID)

	// then read the reply through the relay
	u := url.URL{
		Scheme: "ws",
		Host:   "localhost:8080",
		Path:   "/api/v1/chat/sessions/" + sent.SessionID + "/ws",
	}
	q := u.Query()
	q.Set("course_id", strconv.FormatInt(courseID, 10))
	q.Set("token", token)
	u.RawQuery = q.Encode()

	fmt.Printf("Connecting to %s\n", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			_, frame, err := c.ReadMessage()
			if err != nil {
				log.Println("read:", err)
				return
			}
			fmt.Printf("Received: %s\n", frame)
		}
	}()

	select {
	case <-done:
		return
	case <-interrupt:
		fmt.Println("\nInterrupt received, closing connection...")

		err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			log.Println("write close:", err)
			return
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}
