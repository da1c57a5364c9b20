package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

const (
	WSURL        = "ws://localhost:8080/ws"
	RoomCount    = 50 // ⚠️ Start small. Each room gets UsersPerRoom connections.
	UsersPerRoom = 4
	MsgCount     = 20 // Messages per user
)

// The rooms and users referenced here must already exist in the database
// (chat-message appends against unknown ids are dropped by the relay).
// Typing traffic needs no seed data and always fans out.

var received atomic.Int64

func main() {
	secret := os.Getenv("RELAY_JWT_SECRET")
	if secret == "" {
		secret = "dev-secret"
	}

	log.Printf("🔥 STARTING STRESS TEST: %d rooms x %d users, %d messages each...",
		RoomCount, UsersPerRoom, MsgCount)
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < RoomCount; i++ {
		wg.Add(1)
		go func(roomIdx int) {
			defer wg.Done()
			runRoom(secret, roomIdx)
		}(i)
	}
	wg.Wait()

	log.Printf("✅ LOAD TEST COMPLETE: %d events received in %s",
		received.Load(), time.Since(start).Round(time.Millisecond))
}

func runRoom(secret string, roomIdx int) {
	roomID := fmt.Sprintf("room_%d", roomIdx)
	roomName := fmt.Sprintf("Load Room %d", roomIdx)

	var wsWg sync.WaitGroup
	wsWg.Add(UsersPerRoom)
	for u := 0; u < UsersPerRoom; u++ {
		userID := fmt.Sprintf("u_%d_%d", roomIdx, u)
		go spamChat(&wsWg, secret, roomID, roomName, userID)
	}
	wsWg.Wait()
}

func spamChat(wg *sync.WaitGroup, secret, roomID, roomName, userID string) {
	defer wg.Done()

	token, err := mintToken(secret, userID)
	if err != nil {
		log.Printf("❌ Token Fail [%s]: %v", userID, err)
		return
	}

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s?token=%s", WSURL, token), nil)
	if err != nil {
		log.Printf("❌ WS Connect Fail [%s]: %v", userID, err)
		return
	}
	defer conn.Close()

	// Count everything the relay fans back to us.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var env struct {
				Event string `json:"event"`
			}
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			if env.Event == "recieve-message" || env.Event == "typing" {
				received.Add(1)
			}
		}
	}()

	send := func(event string, data any) error {
		raw, _ := json.Marshal(data)
		return conn.WriteJSON(map[string]any{"event": event, "data": json.RawMessage(raw)})
	}

	if err := send("join-chat", map[string]string{"roomId": roomID, "roomName": roomName}); err != nil {
		log.Printf("❌ Join Fail [%s]: %v", userID, err)
		return
	}

	for i := 0; i < MsgCount; i++ {
		_ = send("typing", map[string]any{"roomName": roomName, "isTyping": true})
		err := send("chat-message", map[string]any{
			"roomId":   roomID,
			"roomName": roomName,
			"content":  fmt.Sprintf("LoadTest Msg %d from %s", i, userID),
			"sender":   map[string]string{"id": userID},
		})
		if err != nil {
			log.Printf("❌ Send Fail [%s]: %v", userID, err)
			break
		}
		// Small sleep to prevent instant localhost bottleneck (simulate real network)
		time.Sleep(10 * time.Millisecond)
	}

	// Give in-flight broadcasts a moment to land before tearing down.
	select {
	case <-readerDone:
	case <-time.After(500 * time.Millisecond):
	}
}

func mintToken(secret, userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"exp": jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	return token.SignedString([]byte(secret))
}
