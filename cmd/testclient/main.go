// Manual test client: authenticates, opens a session and sends a WAV file,
// then prints every frame the server emits.
//
// Usage: go run ./cmd/testclient -server localhost:8080 -wav testdata/hello.wav
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

type authRequest struct {
	ClientID string `json:"client_id"`
	Secret   string `json:"secret"`
}

type authResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type serverFrame struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	server := flag.String("server", "localhost:8080", "host:port of the server")
	wavPath := flag.String("wav", "", "path to a WAV file to send")
	clientID := flag.String("client", "test-client", "client id for authentication")
	secret := flag.String("secret", os.Getenv("CLIENT_SECRET"), "shared client secret")
	flag.Parse()

	if *wavPath == "" {
		log.Fatal("-wav is required")
	}
	audio, err := os.ReadFile(*wavPath)
	if err != nil {
		log.Fatal("read wav:", err)
	}

	token, err := authenticate(*server, *clientID, *secret)
	if err != nil {
		log.Fatal("authenticate:", err)
	}
	log.Printf("authenticated as %s", *clientID)

	u := url.URL{Scheme: "ws", Host: *server, Path: "/ws", RawQuery: "token=" + url.QueryEscape(token)}
	log.Printf("connecting to %s", u.Host)

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				log.Println("read:", err)
				return
			}
			var frame serverFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				log.Printf("unparseable frame: %s", data)
				continue
			}
			switch frame.Type {
			case "stream":
				log.Printf("stream: %q", frame.Text)
			case "reply":
				log.Printf("reply:  %q", frame.Text)
				return
			case "error":
				log.Printf("error:  %s (%s)", frame.Error.Message, frame.Error.Code)
			default:
				log.Printf("unknown frame: %s", data)
			}
		}
	}()

	log.Printf("sending %d bytes of audio", len(audio))
	if err := conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		log.Fatal("write:", err)
	}

	select {
	case <-done:
	case <-interrupt:
		log.Println("interrupted")
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	case <-time.After(2 * time.Minute):
		log.Println("timed out waiting for reply")
	}
}

func authenticate(server, clientID, secret string) (string, error) {
	body, err := json.Marshal(authRequest{ClientID: clientID, Secret: secret})
	if err != nil {
		return "", err
	}

	resp, err := http.Post(
		fmt.Sprintf("http://%s/api/v1/clients/auth", server),
		"application/json",
		bytes.NewReader(body),
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth failed with status %d", resp.StatusCode)
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", err
	}
	return auth.Token, nil
}
