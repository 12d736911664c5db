// Package session implements the connection concurrency model (spec.md
// §4.7, §5): one acceptor, one session per accepted connection reading
// frames strictly in order, and a shared worker pool that executes
// handlers and writes responses — so responses on a single connection may
// be interleaved relative to arrival order, by design.
package session

import (
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yawning/hsm-sim/framing"
)

// Serve runs the accept loop until ln.Accept fails permanently, spawning
// one session goroutine per accepted connection. Grounded on the
// teacher's acceptLoop/handler split: accept, dispatch to a goroutine,
// keep going on transient errors.
func Serve(ln net.Listener, pool *Pool, log zerolog.Logger) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Temporary() {
				log.Debug().Err(err).Msg("transient accept error")
				continue
			}
			return err
		}
		go serveConn(conn, pool, log)
	}
}

// serveConn owns one accepted connection for its lifetime: it reads
// frames sequentially and submits each to the shared pool, never writing
// to the connection itself (workers do, under sendMu).
func serveConn(conn net.Conn, pool *Pool, log zerolog.Logger) {
	defer conn.Close()

	sendMu := &sync.Mutex{}
	remote := conn.RemoteAddr()

	for {
		frame, err := framing.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, framing.ErrPeerClosed) {
				log.Debug().Stringer("remote", remote).Err(err).Msg("frame read failed, closing connection")
			}
			return
		}

		header, code, body, err := framing.SplitFrame(frame)
		if err != nil {
			log.Debug().Stringer("remote", remote).Err(err).Msg("frame split failed, closing connection")
			return
		}

		tid := traceID(frame)
		log.Debug().Stringer("remote", remote).Uint64("trace_id", tid).Str("code", string(code)).Msg("request")

		pool.Submit(job{
			conn:    conn,
			sendMu:  sendMu,
			header:  header,
			code:    string(code),
			body:    body,
			traceID: tid,
		})
	}
}
