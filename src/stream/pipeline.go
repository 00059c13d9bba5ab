package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"market-price-api/src/prices"
)

// Conn is the slice of a websocket connection the pipeline uses. Satisfied
// by *websocket.Conn; faked in tests.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// DialFunc opens a fresh streaming connection.
type DialFunc func(ctx context.Context) (Conn, error)

// PriceSaver is the shared write path streamed ticks are routed through.
type PriceSaver interface {
	SavePrice(ctx context.Context, req prices.SavePriceRequest) (uuid.UUID, error)
}

const (
	// DefaultReconnectDelay is how long the pipeline waits after a remote
	// close before dialing again.
	DefaultReconnectDelay = 30 * time.Second

	// defaultSubscribeDelay spaces the initial subscriptions so the
	// provider is not hit with a burst on connect.
	defaultSubscribeDelay = 100 * time.Millisecond
)

type Options struct {
	DefaultSymbols  []string
	DefaultProvider string
	ReconnectDelay  time.Duration
	SubscribeDelay  time.Duration
}

// Pipeline owns one streaming connection to the upstream provider. The
// connection handle is shared between the receive loop and the external
// Start/Stop/Subscribe calls; the mutex serializes every touch of it.
type Pipeline struct {
	dial           DialFunc
	saver          PriceSaver
	symbols        []string
	provider       string
	reconnectDelay time.Duration
	subscribeDelay time.Duration

	mu        sync.Mutex
	conn      Conn
	cancel    context.CancelFunc
	connected bool
}

func NewPipeline(dial DialFunc, saver PriceSaver, opts Options) *Pipeline {
	if opts.ReconnectDelay == 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}

	if opts.SubscribeDelay == 0 {
		opts.SubscribeDelay = defaultSubscribeDelay
	}

	return &Pipeline{
		dial:           dial,
		saver:          saver,
		symbols:        opts.DefaultSymbols,
		provider:       opts.DefaultProvider,
		reconnectDelay: opts.ReconnectDelay,
		subscribeDelay: opts.SubscribeDelay,
	}
}

// Start dials the stream, subscribes the default symbol set and launches the
// receive loop. A no-op when already connected. Dial failure leaves the
// pipeline disconnected and is returned to the caller; there is no automatic
// retry of a failed Start.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.connected {
		return nil
	}

	conn, err := p.dial(ctx)
	if err != nil {
		p.connected = false
		return fmt.Errorf("Start: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	p.conn = conn
	p.cancel = cancel
	p.connected = true

	log.Info("stream connected")

	for _, symbol := range p.symbols {
		p.subscribeLocked(symbol, p.provider)
		time.Sleep(p.subscribeDelay)
	}

	go p.receiveLoop(loopCtx, conn)

	return nil
}

// Subscribe sends a subscribe message for the symbol. When the pipeline is
// not connected this is a logged no-op; send failures are logged, never
// propagated.
func (p *Pipeline) Subscribe(symbol, provider string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected || p.conn == nil {
		log.Warnf("Subscribe: stream is not connected, cannot subscribe to %s", symbol)
		return
	}

	p.subscribeLocked(symbol, provider)
}

func (p *Pipeline) subscribeLocked(symbol, provider string) {
	msg := subscribeMessage{
		Action:   "subscribe",
		Symbol:   symbol,
		Provider: provider,
	}

	if err := p.conn.WriteJSON(msg); err != nil {
		log.Errorf("Subscribe: failed to subscribe to %s: %v", symbol, err)
		return
	}

	log.Infof("subscribed to %s from provider %s", symbol, provider)
}

// Stop cancels the receive loop and closes the connection. The pipeline
// always ends up disconnected, even when the close handshake fails, and no
// reconnect follows.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}

	if p.conn != nil {
		if err := p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stopping service")); err != nil {
			log.Debugf("Stop: close handshake failed: %v", err)
		}

		if err := p.conn.Close(); err != nil {
			log.Errorf("Stop: error closing stream connection: %v", err)
		}

		p.conn = nil
	}

	p.connected = false

	log.Info("stream stopped")
}

func (p *Pipeline) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.connected
}

// receiveLoop reads frames until the connection drops or Stop cancels the
// context. A remote close triggers a delayed reconnect; an explicit Stop
// never does.
func (p *Pipeline) receiveLoop(ctx context.Context, conn Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Errorf("receiveLoop: %v", err)
			}
			break
		}

		if messageType != websocket.TextMessage {
			continue
		}

		p.handleMessage(ctx, message)
	}

	p.markDisconnected(conn)

	if ctx.Err() != nil {
		return
	}

	log.Infof("stream closed by remote, reconnecting in %v", p.reconnectDelay)

	select {
	case <-ctx.Done():
		return
	case <-time.After(p.reconnectDelay):
	}

	if err := p.Start(context.Background()); err != nil {
		log.Errorf("receiveLoop: reconnect failed: %v", err)
	}
}

// markDisconnected clears the handle, but only if it still belongs to this
// loop; a Stop or a newer Start may already have replaced it.
func (p *Pipeline) markDisconnected(conn Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != conn {
		return
	}

	p.conn = nil
	p.connected = false
}
