package supervisor

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pratham-garg-456/Network-Monitor/internal/events"
	"github.com/pratham-garg-456/Network-Monitor/internal/process"
	"github.com/pratham-garg-456/Network-Monitor/internal/protocol"
	"go.uber.org/zap"
)

type Params struct {
	// Config is the config used to set up the supervisor and its agents.
	Config Config

	// Source provides the interfaces to spawn agents for.
	Source InterfaceSource

	// WorkerFactory creates the worker for each agent. Defaults to
	// process.DefaultFactory.
	WorkerFactory process.Factory

	// Publisher receives lifecycle and alert events. Defaults to a
	// publisher that drops all events.
	Publisher events.Publisher

	// Log is the logger to use for the supervisor
	Log *zap.Logger
}

// Supervisor spawns one agent per interface, pairs incoming agent
// connections with slots and answers their alerts.
//
// The slot table is owned by a single goroutine: the one running Run,
// or the one performing the shutdown if Run was never entered.
type Supervisor struct {
	config    Config
	source    InterfaceSource
	factory   process.Factory
	publisher events.Publisher

	// ctx bounds the lifetime of spawned workers
	ctx    context.Context
	cancel context.CancelFunc

	reactor  *reactor
	slots    []*Slot
	gen      uint64
	rejected int
	started  time.Time

	stateLock   sync.Mutex
	startCalled bool
	inStart     bool
	running     bool
	stopping    bool

	stopCh       chan struct{}
	finished     chan struct{}
	teardownOnce sync.Once

	status atomic.Pointer[Status]

	log *zap.Logger
}

var _ StatusProvider = (*Supervisor)(nil)

func New(params Params) (*Supervisor, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("%w: no interface source", ErrInvalidInterfaceCount)
	}

	if params.WorkerFactory == nil {
		params.WorkerFactory = process.DefaultFactory
	}

	if params.Publisher == nil {
		params.Publisher = events.NopPublisher{}
	}

	config := params.Config
	if config.Socket == "" {
		config.Socket = DefaultSocket
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Supervisor{
		config:    config,
		source:    params.Source,
		factory:   params.WorkerFactory,
		publisher: params.Publisher,
		ctx:       ctx,
		cancel:    cancel,
		stopCh:    make(chan struct{}),
		finished:  make(chan struct{}),
		log:       params.Log.Named("supervisor"),
	}

	s.status.Store(&Status{Socket: config.Socket, Slots: []SlotStatus{}})

	return s, nil
}

// Start binds the rendezvous endpoint and spawns one agent per
// interface. If any agent fails to spawn, everything spawned so far is
// shut down and the error is returned.
func (s *Supervisor) Start(ctx context.Context) error {
	s.stateLock.Lock()
	if s.stopping {
		s.stateLock.Unlock()
		return ErrStopped
	}
	if s.startCalled {
		s.stateLock.Unlock()
		return ErrAlreadyStarted
	}
	s.startCalled = true
	s.inStart = true
	s.stateLock.Unlock()

	err := s.start(ctx)

	s.stateLock.Lock()
	s.inStart = false
	stopping := s.stopping
	s.stateLock.Unlock()

	if err == nil && stopping {
		err = ErrStopped
	}

	if err != nil {
		s.log.Error("failed to start", zap.Error(err))
		s.markStopping()
		s.teardownOnce.Do(s.teardown)
		return err
	}

	return nil
}

func (s *Supervisor) start(ctx context.Context) error {
	listener, err := protocol.Listen(s.config.Socket)
	if err != nil {
		return fmt.Errorf("failed to bind socket: %w", err)
	}

	s.reactor = newReactor(listener, s.log)
	s.started = time.Now()

	s.log.Info("listening", zap.String("socket", s.config.Socket))

	names, err := s.source.Interfaces(ctx)
	if err != nil {
		return fmt.Errorf("failed to get interfaces: %w", err)
	}

	if len(names) == 0 {
		return ErrInvalidInterfaceCount
	}

	s.slots = make([]*Slot, len(names))
	for i, name := range names {
		s.slots[i] = &Slot{Index: i, Interface: name}
	}

	s.reactor.start()

	for _, slot := range s.slots {
		if err := s.spawn(ctx, slot); err != nil {
			return err
		}
	}

	s.publishStatus()

	return nil
}

func (s *Supervisor) spawn(ctx context.Context, slot *Slot) error {
	config := s.config.Agent
	config.Args = append(slices.Clone(config.Args), slot.Interface)

	config.Env = maps.Clone(config.Env)
	if config.Env == nil {
		config.Env = make(map[string]string)
	}
	config.Env[SocketEnv] = s.config.Socket

	log := s.log.With(zap.Int("slot", slot.Index), zap.String("interface", slot.Interface))

	worker := s.factory(s.ctx, config, log)
	if err := worker.Start(ctx); err != nil {
		return fmt.Errorf("failed to spawn agent for %s: %w", slot.Interface, err)
	}

	slot.worker = worker
	slot.pid = worker.Pid()
	slot.spawnedAt = time.Now()

	log.Info("spawned interface monitor", zap.Int("pid", slot.pid))

	s.reactor.watch(slot.Index, worker)

	s.publish(events.AgentSpawned, slot)

	return nil
}

// Run processes events until ctx is cancelled, Shutdown is called or
// the listener fails. It shuts down all agents before returning. The
// error is nil unless the listener failed.
func (s *Supervisor) Run(ctx context.Context) error {
	s.stateLock.Lock()
	if s.stopping {
		s.stateLock.Unlock()
		return nil
	}
	if s.running {
		s.stateLock.Unlock()
		return ErrAlreadyRunning
	}
	if s.reactor == nil || s.inStart {
		s.stateLock.Unlock()
		return ErrNotStarted
	}
	s.running = true
	s.stateLock.Unlock()

	defer s.teardownOnce.Do(s.teardown)
	defer s.markStopping()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("context done")
			return nil
		case <-s.stopCh:
			return nil
		case ev := <-s.reactor.events:
			if err := s.handle(ev); err != nil {
				s.log.Error("supervisor loop failed", zap.Error(err))
				return err
			}
			s.publishStatus()
		}
	}
}

// Shutdown stops all agents and removes the rendezvous endpoint. It
// blocks until the shutdown completed or ctx is done. Calling Shutdown
// more than once is safe.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	if s.markStopping() {
		s.teardownOnce.Do(s.teardown)
	}

	select {
	case <-s.finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to shut down: %w", ctx.Err())
	}
}

// Status returns the status published after the latest event.
func (s *Supervisor) Status() Status {
	return *s.status.Load()
}

// Done is closed once the shutdown completed.
func (s *Supervisor) Done() <-chan struct{} {
	return s.finished
}

// markStopping flags the supervisor as stopping. It reports whether
// the caller has to run the shutdown itself, which is the case unless
// the loop or Start are in progress and will do so.
func (s *Supervisor) markStopping() bool {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	if !s.stopping {
		s.stopping = true
		close(s.stopCh)
	}

	return !s.running && !s.inStart
}

func (s *Supervisor) handle(ev event) error {
	switch ev := ev.(type) {
	case handshakeEvent:
		s.handleHandshake(ev)
	case messageEvent:
		s.handleMessage(ev)
	case closedEvent:
		if slot := s.registered(ev.slot, ev.gen); slot != nil {
			s.release(slot, ev.err)
		}
	case exitEvent:
		s.handleExit(ev)
	case fatalEvent:
		return fmt.Errorf("failed to accept connection: %w", ev.err)
	}

	return nil
}

func (s *Supervisor) handleHandshake(ev handshakeEvent) {
	log := s.log.With(zap.String("conn", ev.conn.ID()), zap.Int("peer_pid", ev.pid))

	if ev.err != nil {
		s.reject(ev.conn, log.With(zap.Error(ev.err)), "unreadable handshake")
		return
	}

	if ev.token != protocol.Ready {
		s.reject(ev.conn, log.With(zap.Stringer("token", ev.token)), "unexpected handshake")
		return
	}

	idx := s.slotFor(ev.pid)
	if idx < 0 {
		s.reject(ev.conn, log, "no free slot")
		return
	}

	slot := s.slots[idx]

	s.gen++
	slot.conn = ev.conn
	slot.gen = s.gen
	slot.monitoring = false
	slot.acked = false

	s.reactor.register(slot.Index, slot.gen, slot.conn)

	log.Info("agent connected",
		zap.Int("slot", slot.Index),
		zap.String("interface", slot.Interface),
	)

	if err := slot.conn.WriteToken(protocol.Monitor); err != nil {
		s.release(slot, err)
		return
	}

	s.publish(events.AgentConnected, slot)
}

func (s *Supervisor) handleMessage(ev messageEvent) {
	slot := s.registered(ev.slot, ev.gen)
	if slot == nil {
		return
	}

	log := s.log.With(
		zap.Int("slot", slot.Index),
		zap.String("interface", slot.Interface),
	)

	if ev.err != nil {
		log.Debug("ignoring unknown message", zap.Error(ev.err))
		return
	}

	switch ev.token {
	case protocol.LinkDown:
		slot.alerts++
		log.Warn("link down, requesting link up", zap.Int("alerts", slot.alerts))

		s.publish(events.LinkDown, slot)

		if err := slot.conn.WriteToken(protocol.SetLinkUp); err != nil {
			s.release(slot, err)
		}

	case protocol.Monitoring:
		slot.monitoring = true
		log.Info("agent is monitoring")

	case protocol.Done:
		slot.acked = true
		log.Debug("agent acknowledged shutdown")

	default:
		log.Debug("ignoring message", zap.Stringer("token", ev.token))
	}
}

func (s *Supervisor) handleExit(ev exitEvent) {
	if ev.slot < 0 || ev.slot >= len(s.slots) {
		return
	}

	slot := s.slots[ev.slot]
	if slot.exited {
		return
	}

	log := s.log.With(
		zap.Int("slot", slot.Index),
		zap.String("interface", slot.Interface),
		zap.Int("pid", slot.pid),
		zap.Any("code", ev.exit.Code),
		zap.Any("signal", ev.exit.Signal),
	)

	if ev.err != nil {
		log.Warn("failed to wait for agent", zap.Error(ev.err))
	} else if ev.exit.Success() {
		log.Info("agent exited")
	} else {
		log.Warn("agent exited")
	}

	s.recordExit(slot, ev.exit)
}

// slotFor picks the slot for a connecting agent: the empty slot whose
// agent process is the peer, or the first empty slot if the peer is not
// one of the spawned agents or cannot be identified.
func (s *Supervisor) slotFor(pid int) int {
	if pid > 0 {
		idx := slices.IndexFunc(s.slots, func(slot *Slot) bool {
			return slot.Empty() && slot.pid == pid
		})
		if idx >= 0 {
			return idx
		}
	}

	return slices.IndexFunc(s.slots, (*Slot).Empty)
}

// registered returns the slot if gen still identifies its current
// registration, and nil for events of a torn-down registration.
func (s *Supervisor) registered(idx int, gen uint64) *Slot {
	if idx < 0 || idx >= len(s.slots) {
		return nil
	}

	slot := s.slots[idx]
	if slot.conn == nil || slot.gen != gen {
		return nil
	}

	return slot
}

// release closes the connection of a slot and makes it available again.
// Agents are not respawned.
func (s *Supervisor) release(slot *Slot, cause error) {
	if slot.conn == nil {
		return
	}

	log := s.log.With(
		zap.Int("slot", slot.Index),
		zap.String("interface", slot.Interface),
	)

	if cause != nil && !protocol.IsClosed(cause) {
		log = log.With(zap.Error(cause))
	}

	if err := slot.conn.Close(); err != nil {
		log.Debug("failed to close connection", zap.Error(err))
	}

	slot.conn = nil
	slot.monitoring = false

	log.Info("agent disconnected")

	s.publish(events.AgentDisconnected, slot)
}

func (s *Supervisor) reject(conn *protocol.Conn, log *zap.Logger, reason string) {
	s.rejected++

	log.Warn("rejecting connection", zap.String("reason", reason))

	if err := conn.Close(); err != nil {
		log.Debug("failed to close rejected connection", zap.Error(err))
	}
}

// teardown runs the shutdown sequence, on the goroutine owning the
// slot table. It must only be called through teardownOnce.
func (s *Supervisor) teardown() {
	defer close(s.finished)
	defer s.cancel()

	s.log.Info("shutting down")

	s.publishStatus()
	s.publish(events.SupervisorShutdown, nil)

	if s.reactor != nil {
		s.reactor.stopAccepting()
	}

	s.requestShutdown()
	s.awaitAcks()

	for _, slot := range s.slots {
		s.release(slot, nil)
	}

	s.stopWorkers()

	if s.reactor != nil {
		s.reactor.stop()

		if err := protocol.Unlink(s.config.Socket); err != nil {
			s.log.Warn("failed to remove socket", zap.Error(err))
		}
	}

	s.publishStatus()

	s.log.Info("shutdown complete")
}

// requestShutdown asks every connected agent to shut down and
// half-closes the connection.
func (s *Supervisor) requestShutdown() {
	for _, slot := range s.slots {
		if slot.conn == nil {
			continue
		}

		if err := slot.conn.WriteToken(protocol.ShutDown); err != nil {
			s.release(slot, err)
			continue
		}

		if err := slot.conn.CloseWrite(); err != nil {
			s.log.Debug("failed to half-close connection", zap.Error(err))
		}
	}
}

// awaitAcks handles events until every connected agent acknowledged
// the shutdown or went away, or the ack timeout elapsed.
func (s *Supervisor) awaitAcks() {
	if s.reactor == nil || s.config.Stop.AckTimeout <= 0 || s.pendingAcks() == 0 {
		return
	}

	timer := time.NewTimer(s.config.Stop.AckTimeout)
	defer timer.Stop()

	for s.pendingAcks() > 0 {
		select {
		case <-timer.C:
			s.log.Warn("timed out waiting for agents", zap.Int("pending", s.pendingAcks()))
			return
		case ev := <-s.reactor.events:
			switch ev := ev.(type) {
			case handshakeEvent:
				s.reject(ev.conn, s.log, "shutting down")
			case fatalEvent:
				s.log.Debug("listener failed during shutdown", zap.Error(ev.err))
			case messageEvent:
				// alerts are no longer answered
				if ev.token == protocol.Done {
					s.handleMessage(ev)
				}
			default:
				_ = s.handle(ev)
			}
		}
	}
}

func (s *Supervisor) pendingAcks() int {
	n := 0
	for _, slot := range s.slots {
		if slot.conn != nil && !slot.acked {
			n++
		}
	}
	return n
}

// stopWorkers interrupts every live worker and waits for it to exit.
// Agents that acknowledged the shutdown are exiting on their own and get
// ExitGrace to do so before they are interrupted.
func (s *Supervisor) stopWorkers() {
	s.awaitAckedExits()

	for _, slot := range s.slots {
		if slot.worker == nil || slot.exited || slot.signaled {
			continue
		}

		slot.signaled = true

		if err := slot.worker.Interrupt(); err != nil {
			s.log.Warn("failed to interrupt agent",
				zap.Int("pid", slot.pid),
				zap.Error(err),
			)
		}
	}

	for _, slot := range s.slots {
		if slot.worker == nil || slot.waited {
			continue
		}

		slot.waited = true

		log := s.log.With(
			zap.String("interface", slot.Interface),
			zap.Int("pid", slot.pid),
		)

		exit, err := slot.worker.WaitFor(context.Background(), s.config.Stop.WaitTimeout)
		if errors.Is(err, process.ErrWaitTimeout) {
			log.Warn("agent did not exit in time, killing it")

			if err := slot.worker.Kill(); err != nil {
				log.Error("failed to kill agent", zap.Error(err))
			}

			exit, err = slot.worker.Wait(context.Background())
		}

		if err != nil {
			log.Warn("failed to wait for agent", zap.Error(err))
			continue
		}

		s.recordExit(slot, exit)

		log.Debug("agent stopped", zap.Any("code", exit.Code), zap.Any("signal", exit.Signal))
	}
}

// awaitAckedExits waits up to ExitGrace for agents that acknowledged
// the shutdown request to exit.
func (s *Supervisor) awaitAckedExits() {
	ctx, cancel := context.WithTimeout(context.Background(), ExitGrace)
	defer cancel()

	for _, slot := range s.slots {
		if slot.worker == nil || slot.exited || !slot.acked {
			continue
		}

		exit, err := slot.worker.Wait(ctx)
		if err != nil {
			s.log.Debug("acknowledged agent still running",
				zap.String("interface", slot.Interface),
				zap.Int("pid", slot.pid),
			)
			continue
		}

		slot.waited = true
		s.recordExit(slot, exit)
	}
}

func (s *Supervisor) recordExit(slot *Slot, exit process.ExitEvent) {
	if slot.exited {
		return
	}

	slot.exited = true
	slot.exit = exit

	s.publish(events.AgentExited, slot)
}

func (s *Supervisor) publish(typ events.Type, slot *Slot) {
	event := events.Event{Type: typ, Slot: -1, Time: time.Now()}

	if slot != nil {
		event.Slot = slot.Index
		event.Interface = slot.Interface
		event.Pid = slot.pid

		if slot.exited {
			event.ExitCode = slot.exit.Code
		}
	}

	s.publisher.Publish(event)
}

func (s *Supervisor) publishStatus() {
	status := &Status{
		Socket:   s.config.Socket,
		Started:  s.started,
		Rejected: s.rejected,
		Slots:    make([]SlotStatus, len(s.slots)),
	}

	s.stateLock.Lock()
	status.Stopping = s.stopping
	s.stateLock.Unlock()

	for i, slot := range s.slots {
		status.Slots[i] = slot.status()
	}

	s.status.Store(status)
}
