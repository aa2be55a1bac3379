// Package mpd owns the single control connection to the MPD daemon: its
// lifecycle state, command serialization and the translation of daemon
// notifications into client broadcasts.
package mpd

import (
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"mpdfm/core/hub"
	"mpdfm/core/meta"
	"mpdfm/logger"

	gompd "github.com/fhs/gompd/v2/mpd"
)

// ConnState is the session's connection lifecycle state. It only changes on
// connect success, connect failure or connection loss.
type ConnState int32

const (
	Disconnected ConnState = iota
	Connecting
	Reconnecting
	Ready
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Reconnecting:
		return "reconnecting"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// Conn is the request/response surface of the upstream connection.
// *gompd.Client satisfies it.
type Conn interface {
	Status() (gompd.Attrs, error)
	CurrentSong() (gompd.Attrs, error)
	Clear() error
	Add(uri string) error
	Play(pos int) error
	Pause(pause bool) error
	Stop() error
	Next() error
	Previous() error
	SetVolume(volume int) error
	ListAllInfo(uri string) ([]gompd.Attrs, error)
	ListPlaylists() ([]gompd.Attrs, error)
	PlaylistInfo(start, end int) ([]gompd.Attrs, error)
	Search(args ...string) ([]gompd.Attrs, error)
	Close() error
}

// Watcher delivers the daemon's unsolicited subsystem notifications.
type Watcher interface {
	Events() <-chan string
	Errors() <-chan error
	Close() error
}

// Dialer opens a connection plus its notification watcher.
type Dialer func(host string, port int) (Conn, Watcher, error)

// Broadcaster pushes a typed message to all connected clients.
type Broadcaster interface {
	Broadcast(msgType string, data any)
}

// Enricher supplies supplemental track metadata. Failures are never fatal
// to the track query.
type Enricher interface {
	Enrich(artist, title string) (meta.Enrichment, error)
	Reset()
}

// DialMPD is the default Dialer, backed by gompd over TCP.
func DialMPD(host string, port int) (Conn, Watcher, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := gompd.Dial("tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	watcher, err := gompd.NewWatcher("tcp", addr, "", "player", "playlist")
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, gompdWatcher{watcher}, nil
}

type gompdWatcher struct {
	w *gompd.Watcher
}

func (g gompdWatcher) Events() <-chan string { return g.w.Event }
func (g gompdWatcher) Errors() <-chan error  { return g.w.Error }
func (g gompdWatcher) Close() error          { return g.w.Close() }

const (
	defaultTimeout    = 5 * time.Second
	reconnectAttempts = 3
	reconnectBackoff  = time.Second
)

// Options configures a Session.
type Options struct {
	Timeout     time.Duration // per-command bound, default 5s
	Dial        Dialer        // default DialMPD
	Enricher    Enricher      // optional
	Broadcaster Broadcaster   // optional
}

// Session owns the one upstream connection. The MPD protocol is strictly
// request/response over a single channel, so every operation that touches
// the connection is serialized behind one mutex; notification handling
// shares the same serialization domain.
type Session struct {
	mu      sync.Mutex // serializes all connection I/O
	conn    Conn
	watcher Watcher
	done    chan struct{}
	host    string
	port    int

	state atomic.Int32

	timeout  time.Duration
	dial     Dialer
	enricher Enricher
	bus      Broadcaster
}

// NewSession creates a disconnected session.
func NewSession(opts Options) *Session {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Dial == nil {
		opts.Dial = DialMPD
	}
	return &Session{
		timeout:  opts.Timeout,
		dial:     opts.Dial,
		enricher: opts.Enricher,
		bus:      opts.Broadcaster,
	}
}

// State returns the current connection state.
func (s *Session) State() ConnState {
	return ConnState(s.state.Load())
}

func (s *Session) setState(st ConnState) {
	s.state.Store(int32(st))
}

// Connect tears down any existing transport and establishes a fresh
// connection plus notification watcher. On failure the session is left
// Disconnected and the error is returned; there is no automatic retry
// here, recovery is the caller's call.
func (s *Session) Connect(host string, port int) error {
	s.mu.Lock()
	s.teardownLocked()
	s.host, s.port = host, port
	s.setState(Connecting)
	s.mu.Unlock()

	if err := s.establish(host, port); err != nil {
		s.setState(Disconnected)
		logger.Error("mpd connect failed",
			logger.ErrorField(err),
			logger.String("host", host),
			logger.Int("port", port))
		return &UpstreamError{Op: "connect", Err: err}
	}
	logger.Info("connected to mpd",
		logger.String("host", host),
		logger.Int("port", port))
	return nil
}

// Close drops the connection and leaves the session Disconnected.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
	s.setState(Disconnected)
}

func (s *Session) establish(host string, port int) error {
	conn, watcher, err := s.dial(host, port)
	if err != nil {
		return err
	}
	done := make(chan struct{})

	s.mu.Lock()
	// A Connect racing a reconnect can both get here; the loser's
	// transport must not leak a second connection or watch loop.
	s.teardownLocked()
	s.conn, s.watcher, s.done = conn, watcher, done
	s.setState(Ready)
	s.mu.Unlock()

	if s.enricher != nil {
		s.enricher.Reset()
	}
	go s.watchLoop(watcher, done)
	return nil
}

// teardownLocked closes the transport. Callers hold s.mu and set the state
// themselves.
func (s *Session) teardownLocked() {
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// withConn runs fn against the connection under the session mutex, bounded
// by the command timeout. A timed-out command closes the connection and
// leaves the session Disconnected so a fresh Connect can recover it.
func (s *Session) withConn(op string, fn func(c Conn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != Ready || s.conn == nil {
		return ErrNotConnected
	}

	conn := s.conn
	errc := make(chan error, 1)
	go func() { errc <- fn(conn) }()

	select {
	case err := <-errc:
		if err == nil {
			return nil
		}
		var ce *CommandError
		if errors.As(err, &ce) {
			return err
		}
		return &UpstreamError{Op: op, Err: err}
	case <-time.After(s.timeout):
		logger.Error("mpd command timed out",
			logger.String("op", op),
			logger.Duration("timeout", s.timeout))
		s.teardownLocked()
		s.setState(Disconnected)
		return &UpstreamError{Op: op, Err: ErrTimeout}
	}
}

// Status queries the daemon and returns a fresh status snapshot.
func (s *Session) Status() (PlayerStatus, error) {
	var status PlayerStatus
	err := s.withConn("status", func(c Conn) error {
		attrs, err := c.Status()
		if err != nil {
			return err
		}
		status = translateStatus(attrs)
		return nil
	})
	return status, err
}

// PlayerState returns just the play/pause/stop state.
func (s *Session) PlayerState() (PlayState, error) {
	status, err := s.Status()
	if err != nil {
		return "", err
	}
	return status.State, nil
}

// CurrentSong queries the current track, derives artist and title, and
// merges in cached-or-fetched enrichment. Enrichment failure is absorbed:
// the bare track is still returned.
func (s *Session) CurrentSong() (Track, error) {
	var attrs gompd.Attrs
	err := s.withConn("currentsong", func(c Conn) error {
		a, err := c.CurrentSong()
		if err != nil {
			return err
		}
		attrs = a
		return nil
	})
	if err != nil {
		return Track{}, err
	}

	track := deriveTrack(attrs)
	if s.enricher == nil || (track.Artist == "" && track.Title == "") {
		return track, nil
	}

	// The lookup runs outside the connection mutex: it is slow external
	// I/O and must not stall commands or notification handling.
	enr, err := s.enricher.Enrich(track.Artist, track.Title)
	if err != nil {
		logger.Warn("track enrichment failed",
			logger.ErrorField(err),
			logger.String("artist", track.Artist),
			logger.String("title", track.Title))
		return track, nil
	}
	track.Album = enr.Album
	track.AlbumName = enr.AlbumName
	track.Wiki = enr.Wiki
	return track, nil
}

// Control issues a transport command and returns the player state the
// daemon settles on afterwards.
func (s *Session) Control(cmd string) (PlayState, error) {
	err := s.withConn(cmd, func(c Conn) error {
		var cerr error
		switch cmd {
		case "play":
			cerr = c.Play(-1)
		case "pause":
			cerr = c.Pause(true)
		case "stop":
			cerr = c.Stop()
		case "next":
			cerr = c.Next()
		case "previous":
			cerr = c.Previous()
		default:
			return &CommandError{Cmd: cmd, Err: errors.New("unknown command")}
		}
		if cerr != nil {
			return &CommandError{Cmd: cmd, Err: cerr}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return s.PlayerState()
}

// SetVolume sets the daemon volume. The 0-100 range is validated at the
// request boundary before it reaches this layer.
func (s *Session) SetVolume(volume int) error {
	return s.withConn("setvol", func(c Conn) error {
		return c.SetVolume(volume)
	})
}

// PlayURL clears the queue, enqueues the given URI and starts playback.
func (s *Session) PlayURL(uri string) error {
	return s.withConn("play url", func(c Conn) error {
		if err := c.Clear(); err != nil {
			return err
		}
		if err := c.Add(uri); err != nil {
			return err
		}
		return c.Play(-1)
	})
}

// ListPlaylists returns the names of the daemon's stored playlists.
func (s *Session) ListPlaylists() ([]string, error) {
	var names []string
	err := s.withConn("listplaylists", func(c Conn) error {
		lists, err := c.ListPlaylists()
		if err != nil {
			return err
		}
		names = make([]string, 0, len(lists))
		for _, attrs := range lists {
			if name := attrs["playlist"]; name != "" {
				names = append(names, name)
			}
		}
		return nil
	})
	return names, err
}

// Library lists every song in the daemon's database.
func (s *Session) Library() ([]LibraryEntry, error) {
	var entries []LibraryEntry
	err := s.withConn("listall", func(c Conn) error {
		songs, err := c.ListAllInfo("/")
		if err != nil {
			return err
		}
		entries = make([]LibraryEntry, 0, len(songs))
		for _, attrs := range songs {
			if attrs["file"] == "" {
				continue
			}
			entries = append(entries, libraryEntry(attrs))
		}
		return nil
	})
	return entries, err
}

// Queue lists the daemon's current play queue.
func (s *Session) Queue() ([]LibraryEntry, error) {
	var entries []LibraryEntry
	err := s.withConn("playlistinfo", func(c Conn) error {
		songs, err := c.PlaylistInfo(-1, -1)
		if err != nil {
			return err
		}
		entries = make([]LibraryEntry, 0, len(songs))
		for _, attrs := range songs {
			entries = append(entries, libraryEntry(attrs))
		}
		return nil
	})
	return entries, err
}

// SearchByArtist returns the files of songs matching the given artist.
func (s *Session) SearchByArtist(artist string) ([]string, error) {
	return s.search("artist", artist)
}

// SearchByTitle returns the files of songs matching the given title.
func (s *Session) SearchByTitle(title string) ([]string, error) {
	return s.search("title", title)
}

func (s *Session) search(field, value string) ([]string, error) {
	var files []string
	err := s.withConn("search "+field, func(c Conn) error {
		results, err := c.Search(field, value)
		if err != nil {
			return err
		}
		files = make([]string, 0, len(results))
		for _, attrs := range results {
			if file := attrs["file"]; file != "" {
				files = append(files, file)
			}
		}
		return nil
	})
	return files, err
}

// subsystem is a daemon notification kind. The set is closed: unknown
// subsystems are logged and ignored.
type subsystem string

const (
	subsystemPlayer   subsystem = "player"
	subsystemPlaylist subsystem = "playlist"
)

func (s *Session) watchLoop(w Watcher, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			logger.Warn("mpd connection lost", logger.ErrorField(err))
			s.reconnect()
			return
		case name, ok := <-w.Events():
			if !ok {
				return
			}
			s.handleSubsystem(subsystem(name))
		}
	}
}

func (s *Session) handleSubsystem(sub subsystem) {
	if s.bus == nil {
		return
	}
	switch sub {
	case subsystemPlaylist:
		s.broadcastCurrentSong()
	case subsystemPlayer:
		// Clients rely on seeing the status before the track.
		status, err := s.Status()
		if err != nil {
			logger.Warn("status query after player event failed", logger.ErrorField(err))
			return
		}
		s.bus.Broadcast(hub.MsgStatus, status)
		s.broadcastCurrentSong()
	default:
		logger.Debug("ignoring mpd subsystem event", logger.String("subsystem", string(sub)))
	}
}

func (s *Session) broadcastCurrentSong() {
	track, err := s.CurrentSong()
	if err != nil {
		logger.Warn("currentsong query after event failed", logger.ErrorField(err))
		return
	}
	s.bus.Broadcast(hub.MsgCurrentSong, track)
}

// reconnect retries the dial a few times with linear backoff after the
// connection drops, then gives up and leaves the session Disconnected.
func (s *Session) reconnect() {
	s.mu.Lock()
	s.teardownLocked()
	s.setState(Reconnecting)
	host, port := s.host, s.port
	s.mu.Unlock()

	for attempt := 1; attempt <= reconnectAttempts; attempt++ {
		time.Sleep(time.Duration(attempt) * reconnectBackoff)
		if err := s.establish(host, port); err != nil {
			logger.Warn("mpd reconnect attempt failed",
				logger.ErrorField(err),
				logger.Int("attempt", attempt))
			continue
		}
		logger.Info("reconnected to mpd", logger.Int("attempt", attempt))
		return
	}
	s.setState(Disconnected)
	logger.Error("mpd reconnect gave up", logger.Int("attempts", reconnectAttempts))
}
