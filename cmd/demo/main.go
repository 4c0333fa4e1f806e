// Console driver for poking a running instance without a WhatsApp bridge.
//
//	go run ./cmd/demo -addr http://localhost:8080 -user 5215550001
//
// Type messages as the patient; /history, /status, /clear and /quit are
// local commands.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type chatRequest struct {
	UserID   string        `json:"user_id"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Response       string            `json:"response"`
	ConversationID string            `json:"conversation_id"`
	Action         *string           `json:"action"`
	Params         map[string]string `json:"params"`
	Error          string            `json:"error"`
}

type historyResponse struct {
	Messages []chatMessage `json:"messages"`
	Count    int           `json:"count"`
}

type sessionResponse struct {
	Active         bool   `json:"active"`
	ConversationID string `json:"conversation_id"`
	MessageCount   int    `json:"message_count"`
	LastActivity   string `json:"last_activity"`
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "base URL of a running instance")
	user := flag.String("user", "5215550001", "phone number to chat as")
	flag.Parse()

	client := &http.Client{Timeout: 90 * time.Second}
	base := strings.TrimRight(*addr, "/")

	fmt.Printf("chatting as %s against %s (/history, /status, /clear, /quit)\n", *user, base)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/history":
			printHistory(client, base, *user)
			continue
		case line == "/status":
			printStatus(client, base, *user)
			continue
		case line == "/clear":
			clearSession(client, base, *user)
			continue
		}

		sendTurn(client, base, *user, line)
	}
}

func sendTurn(client *http.Client, base, user, content string) {
	body, _ := json.Marshal(chatRequest{
		UserID:   user,
		Messages: []chatMessage{{Role: "user", Content: content}},
	})
	resp, err := client.Post(base+"/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	var turn chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&turn); err != nil {
		log.Printf("bad response (%d): %v", resp.StatusCode, err)
		return
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("%d: %s", resp.StatusCode, turn.Error)
		return
	}

	fmt.Println(turn.Response)
	if turn.Action != nil {
		fmt.Printf("  [action=%s params=%v]\n", *turn.Action, turn.Params)
	}
}

func printHistory(client *http.Client, base, user string) {
	resp, err := client.Get(base + "/chat/history/" + user)
	if err != nil {
		log.Printf("history failed: %v", err)
		return
	}
	defer resp.Body.Close()

	var h historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		log.Printf("bad history response (%d): %v", resp.StatusCode, err)
		return
	}
	for _, m := range h.Messages {
		fmt.Printf("  %-9s %s\n", m.Role+":", m.Content)
	}
	fmt.Printf("  (%d messages)\n", h.Count)
}

func printStatus(client *http.Client, base, user string) {
	resp, err := client.Get(base + "/chat/session/" + user)
	if err != nil {
		log.Printf("status failed: %v", err)
		return
	}
	defer resp.Body.Close()

	var s sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		log.Printf("bad status response (%d): %v", resp.StatusCode, err)
		return
	}
	if !s.Active {
		fmt.Println("  no live session")
		return
	}
	fmt.Printf("  %s: %d messages, last activity %s\n", s.ConversationID, s.MessageCount, s.LastActivity)
}

func clearSession(client *http.Client, base, user string) {
	req, _ := http.NewRequest(http.MethodDelete, base+"/chat/conversation/"+user, nil)
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("clear failed: %v", err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		log.Printf("clear returned %d", resp.StatusCode)
		return
	}
	fmt.Println("  session cleared")
}
