package protocol

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol/message"
)

// Handler represents an execution of a given protocol.
// It provides a simple interface for the user to receive/deliver protocol messages.
// Messages may be delivered in any order: messages for later rounds are queued until the handler reaches them.
type Handler struct {
	rs    *roundState
	queue *queue
	mtx   sync.Mutex

	Log     zerolog.Logger
	metrics *Metrics

	protocolID string

	done   bool
	out    chan *Message
	result interface{}
	err    error
}

type handlerOptions struct {
	logger    *zerolog.Logger
	metrics   *Metrics
	queueSize int
}

// Option configures a Handler.
type Option func(*handlerOptions)

// WithLogger replaces the default console logger.
// The protocol, party and round fields are added to it.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *handlerOptions) {
		o.logger = &logger
	}
}

// WithMetrics makes the handler report to m.
func WithMetrics(m *Metrics) Option {
	return func(o *handlerOptions) {
		o.metrics = m
	}
}

// WithQueueSize sets the maximum number of messages held for future rounds.
func WithQueueSize(size int) Option {
	return func(o *handlerOptions) {
		o.queueSize = size
	}
}

// NewHandler expects a StartFunc for the desired protocol. It returns a handler that the user can interact with.
func NewHandler(create StartFunc, sessionID []byte, opts ...Option) (*Handler, error) {
	r, err := create(sessionID)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to create round: %w", err)
	}

	n := r.N()
	rounds := int(r.FinalRoundNumber()) + 1
	options := handlerOptions{queueSize: 2 * n * rounds}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		logger := zerolog.New(zerolog.NewConsoleWriter()).Level(zerolog.InfoLevel)
		options.logger = &logger
	}

	h := &Handler{
		rs:         newRoundState(r),
		queue:      newQueue(options.queueSize),
		metrics:    options.metrics,
		protocolID: r.ProtocolID(),
		// every round sends at most one broadcast and one message per party
		out: make(chan *Message, (n+1)*rounds),
	}
	h.Log = options.logger.With().
		Str("protocol", r.ProtocolID()).
		Str("party", r.SelfID().String()).
		Int("round", int(r.Number())).
		Stack().
		Logger()
	h.Log.Info().Msg("start")

	h.mtx.Lock()
	defer h.mtx.Unlock()
	if err = h.advance(); err != nil {
		return nil, err
	}
	return h, nil
}

// Listen returns a channel with outgoing messages that must be sent to other parties.
// The message received should be _reliably_ broadcast if msg.Broadcast is true.
// The channel is closed when either an error occurs or the protocol detects an error.
func (h *Handler) Listen() <-chan *Message {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return h.out
}

// Result returns the protocol result if the protocol completed successfully. Otherwise an error is returned.
func (h *Handler) Result() (interface{}, error) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.result != nil {
		return h.result, nil
	}
	if h.err != nil {
		return nil, h.err
	}
	return nil, ErrNotFinished
}

// Accept performs the following:
// - Check header information about msg and make sure we can accept it in this protocol execution
// - If the message is for a later round, store it in a queue for later
// - Validate the contents of the message for this round
// - If all messages for this round have been received, proceed to the next round
// - Retrieve from the queue any message intended for this round.
//
// Messages which fail the header checks are dropped, and an error wrapping ErrSessionState is returned.
// A message with invalid content ends the protocol.
//
// This function may be called concurrently from different threads but may block until all previous calls have finished.
func (h *Handler) Accept(msg *Message) error {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	// return early if we are already finished
	if h.done {
		if h.err != nil {
			return h.err
		}
		return sessionStateError(message.ErrLastRound)
	}

	err := h.rs.validate(msg)
	if errors.Is(err, message.ErrFutureRound) {
		if err = h.queue.Store(msg); err != nil {
			h.Log.Warn().Err(err).Stringer("msg", msg).Msg("failed to queue")
			h.metrics.message(h.protocolID, "rejected")
			return sessionStateError(err)
		}
		h.Log.Debug().Stringer("msg", msg).Msg("storing message for later round")
		h.metrics.message(h.protocolID, "queued")
		return nil
	}
	if err != nil {
		h.Log.Warn().Err(err).Msg("failed to validate")
		h.metrics.message(h.protocolID, "rejected")
		return sessionStateError(err)
	}

	if err = h.rs.store(msg); err != nil {
		h.fail(err)
		return err
	}
	h.metrics.message(h.protocolID, "accepted")

	return h.advance()
}

// advance finalizes rounds for as long as the handler holds every message they expect.
func (h *Handler) advance() error {
	for h.rs.complete() && !h.rs.finished() {
		outbound, err := h.rs.advance()
		if err != nil {
			h.fail(err)
			return err
		}
		for _, msg := range outbound {
			h.out <- msg
		}
		h.metrics.round(h.protocolID)

		if h.rs.finished() {
			h.finish()
			return nil
		}

		h.Log.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Int("round", int(h.rs.current.Number()))
		})
		h.Log.Info().Msg("round advanced")

		number := h.rs.current.Number()
		h.queue.Prune(number)
		for _, msg := range h.queue.Get(number) {
			if err = h.rs.validate(msg); err != nil {
				// the sender may have been excluded since the message was queued
				h.Log.Warn().Err(err).Stringer("msg", msg).Msg("dropping queued message")
				h.metrics.message(h.protocolID, "rejected")
				continue
			}
			if err = h.rs.store(msg); err != nil {
				h.fail(err)
				return err
			}
			h.metrics.message(h.protocolID, "accepted")
		}
	}
	return nil
}

func (h *Handler) finish() {
	switch r := h.rs.current.(type) {
	case *round.Output:
		h.result = r.Result
		h.Log.Info().Msg("done")
		h.metrics.session(h.protocolID, "done")
	case *round.Abort:
		err := r.Err
		if err == nil {
			err = errors.New("protocol: aborted")
		}
		h.err = Error{
			Culprits: r.Culprits,
			Err:      err,
		}
		h.Log.Error().Err(h.err).Msg("aborted")
		h.metrics.session(h.protocolID, "aborted")
	}
	h.stop()
}

func (h *Handler) fail(err error) {
	if h.err == nil {
		h.err = err
	}
	h.Log.Error().Err(err).Msg("failed")
	h.metrics.session(h.protocolID, "failed")
	h.rs.clear()
	h.stop()
}

// Stop cancels the execution of the protocol, and erases the secrets held by the current round.
// Result returns ErrStopped afterwards.
func (h *Handler) Stop() {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.done {
		return
	}
	h.err = ErrStopped
	h.rs.clear()
	h.Log.Info().Msg("stopped")
	h.metrics.session(h.protocolID, "stopped")
	h.stop()
}

func (h *Handler) stop() {
	if !h.done {
		h.done = true
		close(h.out)
	}
}
