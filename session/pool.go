package session

import (
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yawning/hsm-sim/dispatch"
	"github.com/yawning/hsm-sim/handlers"
)

// job is one frame handed off from a session's read loop to the shared
// worker pool. sendMu guards conn against interleaved writes from workers
// racing to answer frames from the same connection (spec.md §5: "the
// source lacks this lock, which is a latent bug").
type job struct {
	conn    net.Conn
	sendMu  *sync.Mutex
	header  []byte
	code    string
	body    []byte
	traceID uint64
}

// Pool is the shared worker pool every session submits frames to for
// handler execution and response write (spec.md §4.7, §5).
type Pool struct {
	jobs chan job
	ctx  *handlers.Context
	log  zerolog.Logger
	wg   sync.WaitGroup
}

// NewPool starts size worker goroutines pulling from a shared job queue.
func NewPool(size int, ctx *handlers.Context, log zerolog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		jobs: make(chan job, size*4),
		ctx:  ctx,
		log:  log,
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		frame := dispatch.Dispatch(p.ctx, j.header, j.code, j.body)
		p.send(j, frame)
	}
}

func (p *Pool) send(j job, frame []byte) {
	j.sendMu.Lock()
	defer j.sendMu.Unlock()
	if _, err := j.conn.Write(frame); err != nil {
		p.log.Debug().Uint64("trace_id", j.traceID).Err(err).Msg("response write failed")
	}
}

// Submit enqueues a frame for handling. Blocks if every worker is busy and
// the queue is full, applying natural backpressure to the session's read
// loop.
func (p *Pool) Submit(j job) {
	p.jobs <- j
}

// Close stops accepting new work and waits for in-flight jobs to drain.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
