package ingestor

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ChristianF88/splatsort/depthsort"
	lj "github.com/elastic/go-lumber/lj"
	srv2 "github.com/elastic/go-lumber/server/v2"
)

// DefaultScene is used for events that do not name a scene.
const DefaultScene = "default"

// TransformEvent is one camera update received from a client.
type TransformEvent struct {
	Scene    string
	View     depthsort.ViewTransform
	Received time.Time
}

// --- TCP Ingestor using go-lumber v2 ---

type TCPIngestor struct {
	listener    net.Listener
	readTimeout time.Duration // for server
	events      chan *lj.Batch
	server      *srv2.Server
}

func NewTCPIngestor(addr string, readTimeout time.Duration) (*TCPIngestor, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return &TCPIngestor{
		listener:    ln,
		readTimeout: readTimeout,
		events:      make(chan *lj.Batch, 1000),
	}, nil
}

// Addr returns the listening address.
func (ing *TCPIngestor) Addr() net.Addr {
	return ing.listener.Addr()
}

// Accept starts the lumberjack v2 Server.
func (ing *TCPIngestor) Accept() error {
	srv, err := srv2.NewWithListener(
		ing.listener,
		srv2.Timeout(ing.readTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create lumberjack server: %w", err)
	}
	ing.server = srv

	// Pull batches off ReceiveChan and ack them.
	go func() {
		for batch := range ing.server.ReceiveChan() {
			ing.events <- batch
			batch.ACK()
		}
		close(ing.events)
	}()

	return nil
}

// parseEvent reads a transform from either a numeric "viewProj" array or a
// "message" string of 16 numbers. "scene" is optional.
func parseEvent(evt map[string]interface{}, out *TransformEvent) error {
	out.Scene = DefaultScene
	if name, ok := evt["scene"].(string); ok && name != "" {
		out.Scene = name
	}

	switch v := evt["viewProj"].(type) {
	case []interface{}:
		view, err := depthsort.ViewTransformFromValues(v)
		if err != nil {
			return err
		}
		out.View = view
		return nil
	case nil:
	default:
		return fmt.Errorf("unsupported viewProj type %T", v)
	}

	msg, ok := evt["message"].(string)
	if !ok {
		return errors.New("missing viewProj or message field")
	}
	view, err := depthsort.ParseViewTransform(msg)
	if err != nil {
		return err
	}
	out.View = view
	return nil
}

func (ing *TCPIngestor) ReadBatch() ([]TransformEvent, error) {
	var out []TransformEvent
	now := time.Now()

	for {
		select {
		case batch, ok := <-ing.events:
			if !ok {
				return out, nil
			}
			for _, evt := range batch.Events {
				if m, ok := evt.(map[string]interface{}); ok {
					entry := TransformEvent{Received: now}
					if err := parseEvent(m, &entry); err == nil {
						out = append(out, entry)
					}
				}
			}
		default:
			// Channel is empty, return what we have
			return out, nil
		}
	}
}

// LatestPerScene keeps only the newest transform of each scene, preserving
// the order in which scenes first appeared.
func LatestPerScene(events []TransformEvent) []TransformEvent {
	if len(events) == 0 {
		return nil
	}
	pos := make(map[string]int, 4)
	out := make([]TransformEvent, 0, 4)
	for _, evt := range events {
		if i, ok := pos[evt.Scene]; ok {
			out[i] = evt
			continue
		}
		pos[evt.Scene] = len(out)
		out = append(out, evt)
	}
	return out
}

func (ing *TCPIngestor) IsClosed() bool {
	if ing.server == nil {
		return true
	}
	select {
	case batch, ok := <-ing.events:
		if !ok {
			return true
		}
		// Put the batch back to avoid losing data
		ing.events <- batch
		return false
	default:
		return false
	}
}

// Close shuts down the server and listener.
func (ing *TCPIngestor) Close() error {
	if ing.server != nil {
		ing.server.Close()
	}
	return ing.listener.Close()
}
