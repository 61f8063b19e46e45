package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// Frames arriving faster than this are dropped.
	pubResolution  = time.Second / 60
	pingResolution = 500 * time.Millisecond
	// Number of lost pings tolerated before the peer is considered gone.
	pongWait = pingResolution * 4
)

var upgrader = websocket.Upgrader{}

// ErrPongDeadlineExceeded is returned when the browser stops answering pings.
var ErrPongDeadlineExceeded = errors.New("web: client disconnect, pong deadline exceeded")

// client publishes frames to one browser over a websocket.
type client struct {
	updates <-chan Frame
	ws      *websock
	rootCtx context.Context
}

// newClient upgrades the request and binds it to the updates channel.
func newClient(updates <-chan Frame, w http.ResponseWriter, r *http.Request) (*client, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the request
		return nil, fmt.Errorf("web: upgrade: %w", err)
	}
	ws.SetReadLimit(maxMessageSize)

	return &client{
		updates: updates,
		ws:      newWebSock(ws),
		rootCtx: r.Context(),
	}, nil
}

// Sync runs the read, ping and publish loops until the browser leaves or
// the updates channel closes. A clean disconnect returns nil.
func (cli *client) Sync() error {
	group, groupCtx := errgroup.WithContext(cli.rootCtx)

	group.Go(func() error {
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		return cli.pingPong(groupCtx)
	})
	group.Go(func() error {
		return cli.publish(groupCtx)
	})
	group.Go(func() error {
		// Unblocks the pending ReadMessage once any loop exits
		<-groupCtx.Done()
		cli.ws.Conn().Close()
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, errSessionDone) {
		return err
	}
	return nil
}

// errSessionDone stops the sibling loops on a clean end of session.
var errSessionDone = errors.New("web: session done")

// pingPong checks client liveness. It relies on readMessages running so the
// pong handler fires.
func (cli *client) pingPong(ctx context.Context) error {
	pong := make(chan struct{}, 1)
	cli.ws.Conn().SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}
			if err := cli.ping(ctx); err != nil {
				return err
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

func (cli *client) ping(ctx context.Context) error {
	return cli.ws.Write(ctx, func(ws *websocket.Conn) error {
		if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
			return fmt.Errorf("web: ping failed: %w", err)
		}
		return nil
	})
}

// readMessages drains the browser side. Read errors are permanent, so any
// error ends the session.
func (cli *client) readMessages(ctx context.Context) error {
	for {
		err := cli.ws.Read(ctx, func(ws *websocket.Conn) error {
			_, _, readErr := ws.ReadMessage()
			return readErr
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if isError(err) {
				return fmt.Errorf("web: read: %w", err)
			}
			return errSessionDone
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// publish forwards frames, throttled to pubResolution. A closed feed ends
// the session.
func (cli *client) publish(ctx context.Context) error {
	var lastSync time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-cli.updates:
			if !ok {
				return errSessionDone
			}
			if time.Since(lastSync) < pubResolution {
				break
			}

			lastSync = time.Now()
			err := cli.ws.Write(ctx, func(ws *websocket.Conn) error {
				if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return fmt.Errorf("web: set deadline: %w", err)
				}
				if err := ws.WriteJSON(frame); err != nil {
					return fmt.Errorf("web: publish failed: %w", err)
				}
				return nil
			})
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

func isError(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

// ErrSockCongestion indicates there are too many waiters on the socket for a given op.
var ErrSockCongestion = errors.New("web: socket op failed due to congestion")

const sockOpDeadline = time.Second

// websock serializes access to the connection, which allows one concurrent
// reader and one concurrent writer.
type websock struct {
	readSem  chan struct{}
	writeSem chan struct{}
	ws       *websocket.Conn
}

func newWebSock(ws *websocket.Conn) *websock {
	return &websock{
		readSem:  make(chan struct{}, 1),
		writeSem: make(chan struct{}, 1),
		ws:       ws,
	}
}

// Conn returns the underlying connection, for setup only.
func (sock *websock) Conn() *websocket.Conn {
	return sock.ws
}

// Read serializes read operations on the socket.
func (sock *websock) Read(ctx context.Context, readFn func(*websocket.Conn) error) error {
	select {
	case <-ctx.Done():
		return nil
	case sock.readSem <- struct{}{}:
		defer func() { <-sock.readSem }()
		return readFn(sock.ws)
	case <-time.After(sockOpDeadline):
		return ErrSockCongestion
	}
}

// Write serializes write operations on the socket.
func (sock *websock) Write(ctx context.Context, writeFn func(*websocket.Conn) error) error {
	select {
	case <-ctx.Done():
		return nil
	case sock.writeSem <- struct{}{}:
		defer func() { <-sock.writeSem }()
		return writeFn(sock.ws)
	case <-time.After(sockOpDeadline):
		return ErrSockCongestion
	}
}
