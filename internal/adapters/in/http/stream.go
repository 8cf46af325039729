package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"ekanban/internal/core/application/projection"
	"ekanban/internal/core/application/usecases/queries"

	"github.com/labstack/echo/v4"
)

const defaultKeepalive = 30 * time.Second

type (
	BoardNotifier interface {
		Board() projection.Board
		OnChange(fn func(projection.Board)) projection.ListenerID
		RemoveListener(id projection.ListenerID)
	}

	BoardRenderer interface {
		Render(board projection.Board) queries.GetBoardQueryResponse
	}
)

type streamClient struct {
	boards chan projection.Board
}

// BoardStream pushes every projected board to connected dispatcher screens
// as server-sent events. Slow clients skip intermediate boards and receive
// the latest one.
type BoardStream struct {
	notifier  BoardNotifier
	renderer  BoardRenderer
	keepalive time.Duration
	logger    *slog.Logger

	mu       sync.RWMutex
	clients  map[*streamClient]struct{}
	listener projection.ListenerID
	started  bool
	stopChan chan struct{}
}

func NewBoardStream(notifier BoardNotifier, renderer BoardRenderer, logger *slog.Logger) *BoardStream {
	return &BoardStream{
		notifier:  notifier,
		renderer:  renderer,
		keepalive: defaultKeepalive,
		logger:    logger.With("component", "board_stream"),
		clients:   make(map[*streamClient]struct{}),
		stopChan:  make(chan struct{}),
	}
}

// Start listens to the projection. Calling it again is a no-op.
func (s *BoardStream) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.listener = s.notifier.OnChange(s.broadcast)
}

// Stop detaches from the projection and ends every open stream.
func (s *BoardStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
	if s.started {
		s.notifier.RemoveListener(s.listener)
	}
}

// ClientCount reports the open streams.
func (s *BoardStream) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *BoardStream) broadcast(board projection.Board) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for c := range s.clients {
		select {
		case c.boards <- board:
			continue
		default:
		}
		// Replace the undelivered board.
		select {
		case <-c.boards:
		default:
		}
		select {
		case c.boards <- board:
		default:
		}
	}
}

func (s *BoardStream) register(c *streamClient) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
}

func (s *BoardStream) unregister(c *streamClient) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

// Handle serves GET /api/v1/board/stream. The current board is sent right
// after the connected event.
func (s *BoardStream) Handle(ctx echo.Context) error {
	w := ctx.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	client := &streamClient{boards: make(chan projection.Board, 1)}
	s.register(client)
	defer s.unregister(client)

	if _, err := fmt.Fprint(w, "event: connected\ndata: {}\n\n"); err != nil {
		return nil
	}
	if err := s.send(w, s.notifier.Board()); err != nil {
		return nil
	}

	keepalive := time.NewTicker(s.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Request().Context().Done():
			return nil
		case <-s.stopChan:
			return nil
		case board := <-client.boards:
			if err := s.send(w, board); err != nil {
				s.logger.DebugContext(ctx.Request().Context(), "Board stream closed", "error", err)
				return nil
			}
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func (s *BoardStream) send(w *echo.Response, board projection.Board) error {
	data, err := json.Marshal(newBoardResponse(s.renderer.Render(board)))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: board\ndata: %s\n\n", data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
