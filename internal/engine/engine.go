// Package engine implements the connection engine: the per-connection
// state machine that takes a TLS connection through handshake, forwarding,
// closing, and teardown, driven by a bounded pool of connection slots.
package engine

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajba/sslproxy/internal/monitor"
)

// Engine owns the listener, the connection pool, the backend connector, and
// the TLS credentials. It orchestrates one goroutine per connection in
// place of the original program's single-threaded tick loop.
type Engine struct {
	listener  net.Listener
	tlsConfig *tls.Config
	pool      *Pool
	connector *BackendConnector
	logger    *slog.Logger
	mon       *monitor.Monitor

	nextSlotID atomic.Int64
	wg         sync.WaitGroup
}

// Config configures an Engine.
type Config struct {
	Listen    string
	TLSConfig *tls.Config
	MaxConn   int
	Connector *BackendConnector
	Logger    *slog.Logger
	Monitor   *monitor.Monitor // may be nil
}

// New creates an Engine and binds its listening socket.
func New(cfg Config) (*Engine, error) {
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, err
	}

	return &Engine{
		listener:  ln,
		tlsConfig: cfg.TLSConfig,
		pool:      NewPool(cfg.MaxConn),
		connector: cfg.Connector,
		logger:    cfg.Logger,
		mon:       cfg.Monitor,
	}, nil
}

// Addr returns the bound listen address.
func (e *Engine) Addr() net.Addr {
	return e.listener.Addr()
}

// Run accepts connections until ctx is canceled or the listener errors. It
// then closes the listener and waits for in-flight connections to finish
// their teardown before returning; canceling ctx also closes the
// connections of every live slot.
func (e *Engine) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		e.listener.Close()
	}()

	var acceptErr error
	for {
		conn, err := e.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				acceptErr = nil
			} else {
				acceptErr = err
			}
			break
		}

		e.handleAccept(ctx, conn)
	}
	e.listener.Close()

	e.wg.Wait()
	return acceptErr
}

func (e *Engine) handleAccept(ctx context.Context, conn net.Conn) {
	if !e.pool.Allocate() {
		e.logger.Error("pool exhausted, refusing connection", "peer", conn.RemoteAddr())
		conn.Close()
		return
	}

	slot := NewSlot(int(e.nextSlotID.Add(1)), nil, conn.RemoteAddr().String())
	e.wg.Add(1)

	go func() {
		defer e.wg.Done()
		defer e.pool.Release()
		e.serve(ctx, slot, conn)
	}()
}

func (e *Engine) serve(ctx context.Context, slot *Slot, rawConn net.Conn) {
	tlsConn := tls.Server(rawConn, e.tlsConfig)
	slot.TLSConn = tlsConn
	e.publish(slot, "accept", "")

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		e.logger.Error("TLS handshake failed", "slot", slot.ID, "peer", slot.PeerAddr, "error", err)
		tlsConn.Close()
		e.publish(slot, "handshake_error", err.Error())
		return
	}

	backendConn, err := e.connector.Dial(ctx)
	if err != nil {
		e.logger.Error("backend connect failed", "slot", slot.ID, "peer", slot.PeerAddr, "error", err)
		tlsConn.Close()
		e.publish(slot, "connect_error", err.Error())
		return
	}

	slot.BackendConn = backendConn
	slot.SetState(StateConnected)
	e.logger.Info("connection established", "slot", slot.ID, "peer", slot.PeerAddr)
	e.publish(slot, "connected", "")

	// Shutdown closes both connections of every live slot, which ends both
	// pumps and lets Run's wait for in-flight connections complete.
	stopOnShutdown := context.AfterFunc(ctx, func() {
		backendConn.Close()
		tlsConn.Close()
	})
	defer stopOnShutdown()

	// As soon as either pump finishes (EOF or error), the connection enters
	// Closing and neither direction reads any further: stopBothReads forces
	// a past read deadline onto both connections, aborting whichever pump
	// is still blocked in Read. *tls.Conn has no CloseRead to shut down
	// just the read side, so a deadline is the only way to interrupt it
	// without tearing down the write side pumps still need to drain to.
	var stopOnce sync.Once
	stopBothReads := func() {
		stopOnce.Do(func() {
			deadline := time.Now()
			tlsConn.SetReadDeadline(deadline)
			backendConn.SetReadDeadline(deadline)
		})
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		pump(tlsConn, backendConn, slot.C2SBuf)
		stopBothReads()
		slot.SetState(StateClosing)
		e.publish(slot, "closing", "c2s done")
	}()

	go func() {
		defer wg.Done()
		pump(backendConn, tlsConn, slot.S2CBuf)
		stopBothReads()
		slot.SetState(StateClosing)
		e.publish(slot, "closing", "s2c done")
	}()

	wg.Wait()

	backendConn.Close()
	tlsConn.Close()
	e.logger.Info("connection closed", "slot", slot.ID, "peer", slot.PeerAddr)
	e.publish(slot, "closed", "")
}

// pump reads from src into buf and drains buf to dst until src reaches EOF
// or either side errors (including a read deadline forced by the sibling
// pump finishing first). It is the goroutine-based replacement for the
// original program's per-tick WANT_READ/WANT_WRITE handling: a blocking
// read here is where that loop would have polled for read-readiness.
func pump(src io.Reader, dst io.Writer, buf *Buffer) {
	for {
		n, readErr := src.Read(buf.WritableTail())
		if n > 0 {
			buf.AdvanceWrite(n)
			if err := drain(dst, buf); err != nil {
				return
			}
		}
		if readErr != nil {
			return
		}
	}
}

// drain writes out buf's unsent data, retrying on short writes.
func drain(dst io.Writer, buf *Buffer) error {
	for !buf.Empty() {
		n, err := dst.Write(buf.ReadableHead())
		if n > 0 {
			buf.AdvanceRead(n)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) publish(slot *Slot, state, detail string) {
	if e.mon == nil {
		return
	}
	e.mon.Publish(monitor.Event{
		Slot:   slot.ID,
		State:  state,
		Peer:   slot.PeerAddr,
		Detail: detail,
	})
}

// Close closes the listener directly, for callers that don't drive
// shutdown through Run's context.
func (e *Engine) Close() error {
	return e.listener.Close()
}
