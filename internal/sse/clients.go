// Package sse provides Server-Sent Events client management for real-time communication.
package sse

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

const (
	TopicPosts        = "posts"
	EventPostsChanged = "posts-changed"
	EventNotice       = "notice"
)

type Client struct {
	Msg   chan string
	Topic string
}

// NewClient returns a client for topic with a small send buffer.
func NewClient(topic string) *Client {
	return &Client{Msg: make(chan string, 8), Topic: topic}
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	close(client.Msg)
}

func (s *SSEClients) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends a preformatted frame to every client of topic. Slow
// clients miss messages rather than block the sender.
func (s *SSEClients) Broadcast(topic string, msg string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.Topic == topic {
			select {
			case client.Msg <- msg:
			default:
			}
		}
	}
}

// Publish encodes data as JSON and broadcasts it as a named event.
func (s *SSEClients) Publish(topic, event string, data any) {
	frame, err := Format(event, data)
	if err != nil {
		sseLogger.Error().Err(err).Str("topic", topic).Str("event", event).Msg("Failed to encode event")
		return
	}
	s.Broadcast(topic, frame)
}

// Format renders one event frame.
func Format(event string, data any) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if event != "" {
		fmt.Fprintf(&b, "event: %s\n", event)
	}
	fmt.Fprintf(&b, "data: %s\n\n", payload)
	return b.String(), nil
}
