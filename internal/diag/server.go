package diag

import (
	"encoding/json"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/cartload/server/internal/core/event"
	"github.com/cartload/server/internal/region"
	"github.com/cartload/server/internal/retention"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// recentLimit bounds the change history sent with every frame.
const recentLimit = 64

// Source is the read-only view of retention state the feed publishes.
type Source interface {
	Snapshot() map[string][]retention.Record
}

// RegionView is one retained region in a frame.
type RegionView struct {
	X          int32 `json:"x"`
	Z          int32 `json:"z"`
	ExpiryTick int64 `json:"expiryTick"`
	Remaining  int64 `json:"remaining"`
}

// Change is a force or release seen on the event bus.
type Change struct {
	Tick   int64  `json:"tick"`
	World  string `json:"world"`
	X      int32  `json:"x"`
	Z      int32  `json:"z"`
	Forced bool   `json:"forced"`
}

// Frame is the JSON document pushed to every client.
type Frame struct {
	Tick   int64                   `json:"tick"`
	Worlds map[string][]RegionView `json:"worlds"`
	Recent []Change                `json:"recent"`
}

// Server pushes retention snapshots to websocket clients. It only reads
// retention state; tables are copied under their own locks.
type Server struct {
	source   Source
	clock    retention.TickSource
	interval time.Duration
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	recent []Change

	httpSrv *http.Server
}

func NewServer(source Source, clock retention.TickSource, interval time.Duration, log *zap.Logger) *Server {
	if interval <= 0 {
		interval = time.Second
	}
	return &Server{
		source:   source,
		clock:    clock,
		interval: interval,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Subscribe records region changes from the bus. Handlers run on the tick goroutine.
func (s *Server) Subscribe(bus *event.Bus, clock retention.TickSource) {
	event.Subscribe(bus, func(ev event.RegionForced) {
		s.record(Change{Tick: clock.CurrentTick(), World: ev.World, X: ev.Region.X, Z: ev.Region.Z, Forced: true})
	})
	event.Subscribe(bus, func(ev event.RegionReleased) {
		s.record(Change{Tick: clock.CurrentTick(), World: ev.World, X: ev.Region.X, Z: ev.Region.Z})
	})
}

func (s *Server) record(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, c)
	if over := len(s.recent) - recentLimit; over > 0 {
		s.recent = append(s.recent[:0], s.recent[over:]...)
	}
}

// Frame builds the current frame.
func (s *Server) Frame() Frame {
	tick := s.clock.CurrentTick()
	snap := s.source.Snapshot()
	f := Frame{Tick: tick, Worlds: make(map[string][]RegionView, len(snap))}
	for w, recs := range snap {
		views := make([]RegionView, 0, len(recs))
		for _, rec := range recs {
			views = append(views, RegionView{
				X:          rec.Region.X,
				Z:          rec.Region.Z,
				ExpiryTick: rec.ExpiryTick,
				Remaining:  rec.ExpiryTick - tick,
			})
		}
		sort.Slice(views, func(i, j int) bool {
			return region.Less(region.ID{X: views[i].X, Z: views[i].Z}, region.ID{X: views[j].X, Z: views[j].Z})
		})
		f.Worlds[w] = views
	}
	s.mu.Lock()
	f.Recent = append([]Change(nil), s.recent...)
	s.mu.Unlock()
	return f
}

// Handler serves the feed at /retention.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/retention", s.serveWS)
	return mux
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("diag upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// the feed is push-only; reading detects the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if err := s.push(conn); err != nil {
			s.log.Debug("diag client gone", zap.String("remote", r.RemoteAddr), zap.Error(err))
			return
		}
		select {
		case <-ticker.C:
		case <-closed:
			return
		}
	}
}

func (s *Server) push(conn *websocket.Conn) error {
	payload, err := json.Marshal(s.Frame())
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// ListenAndServe starts the feed on addr in the background and returns the bound address.
func (s *Server) ListenAndServe(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s.httpSrv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("diag server stopped", zap.Error(err))
		}
	}()
	return ln.Addr(), nil
}

func (s *Server) Close() error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Close()
}
