// Package sequencer is the admission layer in front of the matching core.
// The engine itself is single-threaded and lock-free; the sequencer gives it
// a single-writer discipline by funnelling every mutating call through one
// goroutine that owns the engine. At most one SubmitOrder or CancelOrder is
// in flight per engine instance, which subsumes the per-symbol requirement.
package sequencer

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"gungnir/internal/common"
	"gungnir/internal/engine"
)

var ErrStopped = errors.New("sequencer stopped")

const defaultQueueDepth = 1024

type result struct {
	trades []common.Trade
	err    error
}

type command struct {
	cancel bool
	order  *common.Order
	symbol common.Symbol
	id     common.OrderID
	reply  chan result
}

type Sequencer struct {
	engine   *engine.Engine
	commands chan command
	t        *tomb.Tomb
}

// Start takes ownership of the engine and begins draining commands. The
// sequencer dies with the context or on Stop. Mutating the engine directly
// while the sequencer runs breaks the single-writer guarantee; read-only
// queries remain the caller's responsibility to keep off in-flight writes.
func Start(ctx context.Context, eng *engine.Engine, depth int) *Sequencer {
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	s := &Sequencer{
		engine:   eng,
		commands: make(chan command, depth),
	}
	s.t, _ = tomb.WithContext(ctx)
	s.t.Go(s.loop)
	return s
}

func (s *Sequencer) loop() error {
	log.Info().Msg("sequencer running")
	for {
		select {
		case <-s.t.Dying():
			log.Info().Msg("sequencer draining")
			return nil
		case cmd := <-s.commands:
			s.dispatch(cmd)
		}
	}
}

func (s *Sequencer) dispatch(cmd command) {
	var res result
	if cmd.cancel {
		res.err = s.engine.CancelOrder(cmd.symbol, cmd.id)
	} else {
		res.trades, res.err = s.engine.SubmitOrder(cmd.order)
	}
	// Reply channels are buffered; a caller that gave up on its context
	// never blocks the writer goroutine.
	cmd.reply <- res
}

// Submit enqueues an order submission and waits for the trades it produced.
func (s *Sequencer) Submit(ctx context.Context, order *common.Order) ([]common.Trade, error) {
	res, err := s.send(ctx, command{order: order})
	if err != nil {
		return nil, err
	}
	return res.trades, res.err
}

// Cancel enqueues a cancellation and waits for its outcome.
func (s *Sequencer) Cancel(ctx context.Context, symbol common.Symbol, id common.OrderID) error {
	res, err := s.send(ctx, command{cancel: true, symbol: symbol, id: id})
	if err != nil {
		return err
	}
	return res.err
}

func (s *Sequencer) send(ctx context.Context, cmd command) (result, error) {
	if err := ctx.Err(); err != nil {
		return result{}, err
	}
	cmd.reply = make(chan result, 1)
	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return result{}, ctx.Err()
	case <-s.t.Dying():
		return result{}, ErrStopped
	}
	select {
	case res := <-cmd.reply:
		return res, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	case <-s.t.Dying():
		return result{}, ErrStopped
	}
}

// Engine exposes the wrapped engine for read-only queries between writes.
func (s *Sequencer) Engine() *engine.Engine {
	return s.engine
}

// Stop kills the run loop and waits for it to drain.
func (s *Sequencer) Stop() error {
	s.t.Kill(nil)
	return s.t.Wait()
}
