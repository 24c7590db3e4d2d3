// Package deepgram provides a speech.Engine backed by the Deepgram streaming
// WebSocket API. Audio comes from a capture command writing raw 16-bit mono PCM
// to stdout (arecord or sox).
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/verte-zerg/lugemine/internal/speech"
)

const (
	// DefaultEndpoint is the Deepgram live transcription endpoint.
	DefaultEndpoint = "wss://api.deepgram.com/v1/listen"
	// DefaultModel supports Estonian.
	DefaultModel = "nova-2"
	// DefaultLanguage is Estonian.
	DefaultLanguage = "et"
	// DefaultSampleRate is the capture sample rate in Hz.
	DefaultSampleRate = 16000
	// DefaultCaptureCommand records mono 16-bit PCM from the default device.
	DefaultCaptureCommand = "arecord -q -t raw -f S16_LE -c 1 -r {rate}"

	eventBuffer = 64
	// dialTimeout bounds the websocket handshake.
	dialTimeout = 10 * time.Second
	// retryBase and retryMax bound the pause before redialing after a failure.
	retryBase = 500 * time.Millisecond
	retryMax  = 10 * time.Second
	// chunkMillis is the amount of audio sent per websocket message.
	chunkMillis = 100
)

// Config configures the engine.
type Config struct {
	APIKey         string
	Model          string
	Language       string
	Endpoint       string
	SampleRate     int
	CaptureCommand string
}

// AudioSource opens a PCM stream. Closing the reader releases the device.
type AudioSource func(ctx context.Context) (io.ReadCloser, error)

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithAudioSource replaces the capture command.
func WithAudioSource(src AudioSource) Option {
	return func(e *Engine) {
		e.audio = src
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine implements speech.Engine. One websocket session runs per Start.
type Engine struct {
	cfg    Config
	audio  AudioSource
	logger *slog.Logger

	events  chan speech.Event
	closing chan struct{}

	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc
	done     chan struct{}
	failures int
	sessions sync.WaitGroup
}

// New creates an engine. cfg.APIKey must be non-empty.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("deepgram: api key must not be empty (set DEEPGRAM_API_KEY)")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.CaptureCommand == "" {
		cfg.CaptureCommand = DefaultCaptureCommand
	}
	e := &Engine{
		cfg:     cfg,
		logger:  slog.New(slog.DiscardHandler),
		events:  make(chan speech.Event, eventBuffer),
		closing: make(chan struct{}),
	}
	e.audio = commandSource(expandCommand(cfg.CaptureCommand, cfg.SampleRate))
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Events implements speech.Engine.
func (e *Engine) Events() <-chan speech.Event {
	return e.events
}

// Start requests a session and returns at once. The dial and the capture
// startup run in the background; EventStarted confirms the session, a failure
// is reported as EventError followed by EventStopped.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return speech.ErrClosed
	}
	if e.done != nil {
		return nil
	}
	wsURL, err := e.buildURL()
	if err != nil {
		return fmt.Errorf("deepgram: build URL: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done
	e.sessions.Add(1)
	go e.run(runCtx, cancel, wsURL, e.failures, done)
	return nil
}

// Stop ends the current session; EventStopped follows.
func (e *Engine) Stop() error {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// Close stops the engine, waits for every session to end and closes Events.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.closing)
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	e.sessions.Wait()
	close(e.events)
	return nil
}

func (e *Engine) run(ctx context.Context, cancel context.CancelFunc, wsURL string, failures int, done chan struct{}) {
	defer e.sessions.Done()
	defer close(done)
	defer cancel()

	err := e.session(ctx, cancel, wsURL, failures)

	e.mu.Lock()
	if e.done == done {
		e.cancel = nil
		e.done = nil
	}
	e.mu.Unlock()

	if err != nil && !expectedClose(err) {
		e.logger.Warn("deepgram session ended", "err", err)
		e.emit(speech.Event{Kind: speech.EventError, Err: err})
	}
	e.emit(speech.Event{Kind: speech.EventStopped})
}

// session waits out the retry pause, connects and streams until either side
// fails or ctx is cancelled.
func (e *Engine) session(ctx context.Context, cancel context.CancelFunc, wsURL string, failures int) error {
	if failures > 0 {
		timer := time.NewTimer(retryDelay(failures))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	conn, err := e.dial(ctx, wsURL)
	if err != nil {
		e.recordFailure(err)
		return err
	}
	src, err := e.audio(ctx)
	if err != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "capture failed")
		return fmt.Errorf("deepgram: open audio: %w: %w", speech.ErrPermissionDenied, err)
	}
	e.mu.Lock()
	e.failures = 0
	e.mu.Unlock()
	e.emit(speech.Event{Kind: speech.EventStarted})

	errc := make(chan error, 2)
	go func() { errc <- e.pump(ctx, conn, src) }()
	go func() { errc <- e.receive(ctx, conn) }()

	err = <-errc
	cancel()
	if cerr := src.Close(); cerr != nil {
		e.logger.Debug("deepgram: close audio", "err", cerr)
	}
	_ = conn.Close(websocket.StatusNormalClosure, "session closed")
	<-errc
	return err
}

func (e *Engine) dial(ctx context.Context, wsURL string) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	headers := http.Header{}
	headers.Set("Authorization", "Token "+e.cfg.APIKey)
	conn, resp, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{HTTPHeader: headers})
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("deepgram: %w: status %d", speech.ErrPermissionDenied, resp.StatusCode)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("deepgram: dial: %w", err)
	}
	return conn, nil
}

func (e *Engine) recordFailure(err error) {
	if expectedClose(err) {
		return
	}
	e.mu.Lock()
	e.failures++
	e.mu.Unlock()
}

// retryDelay doubles from retryBase per consecutive failure, capped at retryMax.
func retryDelay(failures int) time.Duration {
	d := retryBase
	for i := 1; i < failures && d < retryMax; i++ {
		d *= 2
	}
	return min(d, retryMax)
}

// pump sends captured audio in fixed-size binary messages.
func (e *Engine) pump(ctx context.Context, conn *websocket.Conn, src io.Reader) error {
	buf := make([]byte, e.cfg.SampleRate*2*chunkMillis/1000)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if werr := conn.Write(ctx, websocket.MessageBinary, buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("audio capture ended: %w", speech.ErrAborted)
			}
			return err
		}
	}
}

// receive parses Deepgram messages into transcript events.
func (e *Engine) receive(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		ev, ok := parseResponse(msg)
		if !ok {
			continue
		}
		e.emit(ev)
	}
}

func (e *Engine) emit(ev speech.Event) {
	select {
	case e.events <- ev:
	case <-e.closing:
	}
}

func (e *Engine) buildURL() (string, error) {
	u, err := url.Parse(e.cfg.Endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("model", e.cfg.Model)
	q.Set("language", e.cfg.Language)
	q.Set("interim_results", "true")
	q.Set("punctuate", "true")
	q.Set("encoding", "linear16")
	q.Set("channels", "1")
	q.Set("sample_rate", strconv.Itoa(e.cfg.SampleRate))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// response is the JSON structure of a Deepgram Results message.
type response struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func parseResponse(data []byte) (speech.Event, bool) {
	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return speech.Event{}, false
	}
	if resp.Type != "Results" || len(resp.Channel.Alternatives) == 0 {
		return speech.Event{}, false
	}
	text := strings.TrimSpace(resp.Channel.Alternatives[0].Transcript)
	if resp.IsFinal {
		if text == "" {
			return speech.Event{}, false
		}
		return speech.Event{Kind: speech.EventFinal, Text: text}, true
	}
	return speech.Event{Kind: speech.EventInterim, Text: text}, true
}

func expectedClose(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	return websocket.CloseStatus(err) == websocket.StatusNormalClosure
}
