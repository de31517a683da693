// Package session runs remote editing sessions: every open project gets a
// room whose goroutine owns the project's engine. Clients send editor
// commands over a websocket and receive state and frame replies.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/splinetool/splinetool/internal/document"
)

// Loader returns the stored scene JSON of a project. Nil data with a nil
// error opens an empty scene.
type Loader func(ctx context.Context, projectID string) ([]byte, error)

// Saver stores the scene JSON of a project.
type Saver func(ctx context.Context, projectID string, sceneJSON []byte) error

type Options struct {
	Load Loader
	Save Saver
	// Canvas and Timeline configure rooms opened on an empty scene.
	Canvas   document.Canvas
	Timeline document.Timeline
	// SaveInterval is how often a room persists unsaved changes. Zero
	// means 30 seconds.
	SaveInterval time.Duration
}

type registration struct {
	client *Client
	reply  chan error
}

type Hub struct {
	opts       Options
	rooms      map[string]*Room // projectID -> room; owned by Run
	register   chan registration
	unregister chan *Client
	stop       chan chan struct{}
	done       chan struct{} // closed when Run returns
}

func NewHub(opts Options) *Hub {
	if opts.SaveInterval <= 0 {
		opts.SaveInterval = 30 * time.Second
	}
	return &Hub{
		opts:       opts,
		rooms:      make(map[string]*Room),
		register:   make(chan registration),
		unregister: make(chan *Client),
		stop:       make(chan chan struct{}),
		done:       make(chan struct{}),
	}
}

var ErrStopped = errors.New("session hub stopped")

func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case reg := <-h.register:
			reg.reply <- h.addClient(reg.client)
		case client := <-h.unregister:
			h.removeClient(client)
		case done := <-h.stop:
			for id, room := range h.rooms {
				room.close()
				delete(h.rooms, id)
			}
			close(done)
			return
		}
	}
}

// Register adds client to its project's room, opening the room if needed.
// It fails when the project's scene cannot be loaded.
func (h *Hub) Register(client *Client) error {
	reply := make(chan error, 1)
	select {
	case h.register <- registration{client: client, reply: reply}:
		return <-reply
	case <-h.done:
		return ErrStopped
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Stop saves every open room and stops the hub.
func (h *Hub) Stop() {
	done := make(chan struct{})
	select {
	case h.stop <- done:
		<-done
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) error {
	room, ok := h.rooms[client.ProjectID]
	if !ok {
		var err error
		// Runs in the hub goroutine, so the request context is not available.
		room, err = h.openRoom(context.Background(), client.ProjectID)
		if err != nil {
			return err
		}
		h.rooms[client.ProjectID] = room
		go room.run()
	}
	room.members++
	client.room = room
	room.post(event{kind: eventJoin, client: client})
	return nil
}

func (h *Hub) removeClient(client *Client) {
	room, ok := h.rooms[client.ProjectID]
	if !ok || client.room != room {
		return
	}
	room.post(event{kind: eventLeave, client: client})
	room.members--
	if room.members == 0 {
		delete(h.rooms, client.ProjectID)
		room.close()
	}
}

func (h *Hub) openRoom(ctx context.Context, projectID string) (*Room, error) {
	var data []byte
	if h.opts.Load != nil {
		var err error
		data, err = h.opts.Load(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("load project %s: %w", projectID, err)
		}
	}
	room, err := newRoom(projectID, data, h.opts)
	if err != nil {
		return nil, err
	}
	slog.Info("room opened", "project", projectID)
	return room, nil
}
