package supervisor

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/pratham-garg-456/Network-Monitor/internal/process"
	"github.com/pratham-garg-456/Network-Monitor/internal/protocol"
	"go.uber.org/zap"
)

type event interface {
	isEvent()
}

// handshakeEvent carries the first message of a new connection. pid is
// the peer process, 0 if unknown.
type handshakeEvent struct {
	conn  *protocol.Conn
	pid   int
	token protocol.Token
	err   error
}

// messageEvent carries a message received on a registered connection.
// err is set for payloads that are not a known token.
type messageEvent struct {
	slot  int
	gen   uint64
	token protocol.Token
	err   error
}

// closedEvent is the last event emitted for a registered connection.
type closedEvent struct {
	slot int
	gen  uint64
	err  error
}

// exitEvent reports that the worker of a slot terminated.
type exitEvent struct {
	slot int
	exit process.ExitEvent
	err  error
}

// fatalEvent reports that the listener failed.
type fatalEvent struct {
	err error
}

func (handshakeEvent) isEvent() {}
func (messageEvent) isEvent()   {}
func (closedEvent) isEvent()    {}
func (exitEvent) isEvent()      {}
func (fatalEvent) isEvent()     {}

// reactor turns blocking socket reads and process waits into events on
// a single channel. It never touches the slot table.
type reactor struct {
	listener *net.UnixListener
	events   chan event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pendingLock sync.Mutex
	pending     map[net.Conn]struct{}
	closed      bool

	stopOnce sync.Once

	log *zap.Logger
}

func newReactor(listener *net.UnixListener, log *zap.Logger) *reactor {
	ctx, cancel := context.WithCancel(context.Background())

	return &reactor{
		listener: listener,
		events:   make(chan event),
		ctx:      ctx,
		cancel:   cancel,
		pending:  make(map[net.Conn]struct{}),
		log:      log.Named("reactor"),
	}
}

// start begins accepting connections.
func (r *reactor) start() {
	r.wg.Add(1)
	go r.acceptLoop()
}

// emit delivers ev to the loop unless the reactor was stopped.
func (r *reactor) emit(ev event) bool {
	select {
	case r.events <- ev:
		return true
	case <-r.ctx.Done():
		return false
	}
}

func (r *reactor) acceptLoop() {
	defer r.wg.Done()

	for {
		conn, err := r.listener.AcceptUnix()
		if errors.Is(err, net.ErrClosed) {
			r.log.Debug("listener closed")
			return
		} else if err != nil {
			r.emit(fatalEvent{err: err})
			return
		}

		if !r.track(conn) {
			conn.Close()
			return
		}

		r.wg.Add(1)
		go r.readHandshake(conn)
	}
}

// track records a connection whose handshake is still outstanding, so
// that it can be closed when accepting stops.
func (r *reactor) track(conn net.Conn) bool {
	r.pendingLock.Lock()
	defer r.pendingLock.Unlock()

	if r.closed {
		return false
	}

	r.pending[conn] = struct{}{}
	return true
}

func (r *reactor) untrack(conn net.Conn) {
	r.pendingLock.Lock()
	defer r.pendingLock.Unlock()

	delete(r.pending, conn)
}

func (r *reactor) readHandshake(raw net.Conn) {
	defer r.wg.Done()
	defer r.untrack(raw)

	conn := protocol.NewConn(raw)
	pid := protocol.PeerPid(raw)

	if err := raw.SetReadDeadline(time.Now().Add(HandshakeTimeout)); err != nil {
		r.log.Debug("failed to set handshake deadline", zap.Error(err))
	}

	token, err := conn.ReadToken()

	if err := raw.SetReadDeadline(time.Time{}); err != nil {
		r.log.Debug("failed to clear handshake deadline", zap.Error(err))
	}

	if !r.emit(handshakeEvent{conn: conn, pid: pid, token: token, err: err}) {
		conn.Close()
	}
}

// register starts reading messages from conn on behalf of a slot.
func (r *reactor) register(slot int, gen uint64, conn *protocol.Conn) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		for {
			token, err := conn.ReadToken()
			if errors.Is(err, protocol.ErrUnknownToken) {
				if !r.emit(messageEvent{slot: slot, gen: gen, err: err}) {
					return
				}
				continue
			} else if err != nil {
				r.emit(closedEvent{slot: slot, gen: gen, err: err})
				return
			}

			if !r.emit(messageEvent{slot: slot, gen: gen, token: token}) {
				return
			}
		}
	}()
}

// watch emits an exit event once worker terminates.
func (r *reactor) watch(slot int, worker process.Worker) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		exit, err := worker.Wait(r.ctx)
		if r.ctx.Err() != nil {
			return
		}

		r.emit(exitEvent{slot: slot, exit: exit, err: err})
	}()
}

// stopAccepting closes the listener and every connection that has not
// completed its handshake yet.
func (r *reactor) stopAccepting() {
	r.pendingLock.Lock()
	defer r.pendingLock.Unlock()

	if r.closed {
		return
	}
	r.closed = true

	if err := r.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		r.log.Debug("failed to close listener", zap.Error(err))
	}

	for conn := range r.pending {
		conn.Close()
	}
}

// stop terminates all goroutines. Registered connections must be
// closed before, as stop waits for their readers.
func (r *reactor) stop() {
	r.stopOnce.Do(func() {
		r.stopAccepting()
		r.cancel()
		r.wg.Wait()
	})
}
