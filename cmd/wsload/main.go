// Package main provides a load testing tool for the live subscription
// gateway. Each simulated client opens a websocket, subscribes to a set
// of topics, and counts the snapshot frames it receives.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the test results
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	SnapshotsReceived    int64
	GapNotices           int64
	Errors               int64
}

var metrics Metrics

type subscribeFrame struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

type inboundFrame struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

func main() {
	host := flag.String("host", "localhost:8480", "API server host")
	token := flag.String("token", "", "Bearer token for the websocket handshake")
	clients := flag.Int("clients", 50, "Number of concurrent clients")
	topics := flag.String("topics", "posts,products,communities,vibes", "Comma-separated topics to subscribe to")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	flag.Parse()

	if *token == "" {
		log.Fatal("a -token is required; the gateway rejects anonymous upgrades")
	}

	topicList := strings.Split(*topics, ",")
	log.Printf("Starting subscription load test against %s", *host)
	log.Printf("Clients: %d, topics: %v, duration: %v", *clients, topicList, *duration)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, *token, topicList, stopChan, &wg)
		time.Sleep(20 * time.Millisecond) // stagger the handshakes
	}

	select {
	case <-time.After(*duration):
		log.Println("Test duration reached")
	case <-interrupt:
		log.Println("Interrupted by user")
	}

	close(stopChan)
	log.Println("Waiting for clients to disconnect...")
	wg.Wait()

	printMetrics()
}

func runClient(host, token string, topics []string, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: "token=" + url.QueryEscape(token)}

	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	subscribe := func(topic string) error {
		frame, _ := json.Marshal(subscribeFrame{Action: "subscribe", Topic: topic})
		return c.WriteMessage(websocket.TextMessage, frame)
	}
	for _, topic := range topics {
		if err := subscribe(topic); err != nil {
			atomic.AddInt64(&metrics.Errors, 1)
			return
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				return
			}
			var frame inboundFrame
			if err := json.Unmarshal(raw, &frame); err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				continue
			}
			switch {
			case frame.Type == "snapshots_dropped":
				// The server dropped frames for this client; resubscribing
				// forces a fresh snapshot of everything.
				atomic.AddInt64(&metrics.GapNotices, 1)
				for _, topic := range topics {
					_ = subscribe(topic)
				}
			case frame.Topic != "":
				atomic.AddInt64(&metrics.SnapshotsReceived, 1)
			}
		}
	}()

	select {
	case <-stopChan:
		_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	case <-done:
	}
}

func printMetrics() {
	log.Println("\nTest Results")
	log.Println("============")
	log.Printf("Connections Attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("Connections Successful: %d", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	log.Printf("Connections Failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("Snapshots Received: %d", atomic.LoadInt64(&metrics.SnapshotsReceived))
	log.Printf("Gap Notices: %d", atomic.LoadInt64(&metrics.GapNotices))
	log.Printf("Total Errors: %d", atomic.LoadInt64(&metrics.Errors))
}
