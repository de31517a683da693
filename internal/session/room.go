package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/splinetool/splinetool/internal/engine"
	"github.com/splinetool/splinetool/internal/scene"
)

const saveTimeout = 10 * time.Second

type eventKind int

const (
	eventJoin eventKind = iota
	eventLeave
	eventMessage
	eventStop
)

type event struct {
	kind   eventKind
	client *Client
	msg    *Message
}

// Room is one open project. Its goroutine is the only one that touches the
// engine. Among the connected clients that may edit, the first to join holds
// the writer lease; the others watch until it leaves.
type Room struct {
	projectID    string
	engine       *engine.Engine
	save         Saver
	saveInterval time.Duration

	members int // owned by the hub goroutine

	clients []*Client // join order
	writer  *Client
	dirty   bool

	events chan event
	done   chan struct{}
}

func newRoom(projectID string, data []byte, opts Options) (*Room, error) {
	e, err := openEngine(data, opts)
	if err != nil {
		return nil, err
	}
	return &Room{
		projectID:    projectID,
		engine:       e,
		save:         opts.Save,
		saveInterval: opts.SaveInterval,
		events:       make(chan event, 256),
		done:         make(chan struct{}),
	}, nil
}

// openEngine restores a stored scene on the canvas it was saved on.
func openEngine(data []byte, opts Options) (*engine.Engine, error) {
	if data == nil {
		return engine.NewEngine(engine.Options{Canvas: opts.Canvas, Timeline: opts.Timeline}), nil
	}
	var f scene.File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	canvas := f.Canvas()
	e := engine.NewEngine(engine.Options{Canvas: canvas})
	e.LoadScene(f.Scene(canvas))
	return e, nil
}

func (r *Room) post(ev event) {
	select {
	case r.events <- ev:
	case <-r.done:
	}
}

func (r *Room) dispatch(c *Client, msg *Message) {
	r.post(event{kind: eventMessage, client: c, msg: msg})
}

// close saves the room and waits for its goroutine to exit.
func (r *Room) close() {
	r.post(event{kind: eventStop})
	<-r.done
}

func (r *Room) run() {
	defer close(r.done)
	ticker := time.NewTicker(r.saveInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-r.events:
			switch ev.kind {
			case eventJoin:
				r.join(ev.client)
			case eventLeave:
				r.leave(ev.client)
			case eventMessage:
				r.handle(ev.client, ev.msg)
			case eventStop:
				r.persist()
				for _, c := range r.clients {
					close(c.send)
				}
				r.clients = nil
				slog.Info("room closed", "project", r.projectID)
				return
			}
		case <-ticker.C:
			r.persist()
		}
	}
}

func (r *Room) join(c *Client) {
	r.clients = append(r.clients, c)
	if r.writer == nil && c.CanEdit {
		r.writer = c
	}

	c.Send(message(TypeWelcome, WelcomePayload{
		ClientID: c.ClientID,
		Writer:   r.writer == c,
		State:    r.state(),
	}))
	r.broadcast(message(TypeJoin, JoinPayload{UserID: c.UserID, DisplayName: c.DisplayName}), c)
	if r.writer == c {
		r.broadcast(r.writerMessage(), c)
	}

	slog.Info("client joined", "user", c.UserID, "project", r.projectID, "writer", r.writer == c)
}

func (r *Room) leave(c *Client) {
	i := slices.Index(r.clients, c)
	if i < 0 {
		return
	}
	r.clients = slices.Delete(r.clients, i, i+1)
	close(c.send)

	r.broadcast(message(TypeLeave, LeavePayload{UserID: c.UserID}), nil)

	if r.writer == c {
		// finish a drag the writer left mid-gesture
		r.engine.PointerUp()
		r.writer = nil
		for _, other := range r.clients {
			if other.CanEdit {
				r.writer = other
				break
			}
		}
		r.broadcast(r.writerMessage(), nil)
	}

	slog.Info("client left", "user", c.UserID, "project", r.projectID)
}

func (r *Room) handle(c *Client, msg *Message) {
	if !slices.Contains(r.clients, c) {
		return
	}

	switch msg.Type {
	case TypeCommand:
		r.command(c, msg)
	case TypeFrameRequest:
		c.Send(message(TypeFrame, r.frame()))
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", c.UserID)
		c.Send(message(TypeError, ErrorPayload{Message: "unknown message type: " + msg.Type}))
	}
}

func (r *Room) command(c *Client, msg *Message) {
	nack := func(reason string) {
		c.Send(message(TypeNack, NackPayload{Seq: msg.Seq, Reason: reason}))
	}

	var cmd Command
	if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
		nack("invalid command: " + err.Error())
		return
	}
	o, ok := ops[cmd.Op]
	if !ok {
		nack("unknown op: " + cmd.Op)
		return
	}
	if o.write && r.writer != c {
		nack("read only")
		return
	}

	result, err := o.run(r.engine, cmd.Args)
	if err != nil {
		nack(err.Error())
		return
	}
	c.Send(message(TypeAck, AckPayload{Seq: msg.Seq, Result: result}))

	if o.write {
		if o.persist {
			r.dirty = true
		}
		r.broadcast(message(TypeState, r.state()), nil)
	}
}

func (r *Room) state() StatePayload {
	return StatePayload{
		Scene:     json.RawMessage(r.engine.GetScene()),
		Selection: json.RawMessage(r.engine.GetSelection()),
		Playback:  json.RawMessage(r.engine.GetPlaybackState()),
		History:   json.RawMessage(r.engine.GetHistoryState()),
	}
}

func (r *Room) frame() FramePayload {
	return FramePayload{
		Frame:           r.engine.Frame(),
		Commands:        json.RawMessage(r.engine.Render()),
		SelectionBounds: json.RawMessage(r.engine.GetSelectionBounds()),
	}
}

func (r *Room) writerMessage() *Message {
	var p WriterPayload
	if r.writer != nil {
		p = WriterPayload{ClientID: r.writer.ClientID, UserID: r.writer.UserID}
	}
	return message(TypeWriter, p)
}

func (r *Room) broadcast(msg *Message, exclude *Client) {
	for _, c := range r.clients {
		if c != exclude {
			c.Send(msg)
		}
	}
}

// persist saves unsaved changes. A failed save stays dirty and is retried on
// the next tick.
func (r *Room) persist() {
	if !r.dirty || r.save == nil {
		return
	}
	data, err := r.engine.EncodeScene()
	if err != nil {
		slog.Error("encode scene", "project", r.projectID, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := r.save(ctx, r.projectID, data); err != nil {
		slog.Error("save scene", "project", r.projectID, "error", err)
		return
	}
	r.dirty = false
	slog.Info("scene saved", "project", r.projectID)
}

func message(typ string, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal payload", "type", typ, "error", err)
	}
	return &Message{Type: typ, Payload: data}
}
