package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremon "github.com/RixhersAjazi/schedulemaker/core/monitoring"
	"github.com/RixhersAjazi/schedulemaker/core/request"
	"github.com/RixhersAjazi/schedulemaker/infra/logger"
)

// HandlerFunc answers one decoded request. The returned value is encoded as
// the reply result.
type HandlerFunc func(ctx context.Context, requestID string, req *request.Request) (any, error)

// Envelope is the payload published on the request topic.
type Envelope struct {
	RequestID string          `json:"request_id"`
	Request   json.RawMessage `json:"request"`
}

// Reply is published on <reply_prefix>/<request_id>.
type Reply struct {
	RequestID string `json:"request_id"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	Msg       string `json:"msg,omitempty"`
}

// Responder serves search requests received over MQTT.
type Responder struct {
	cli     pahoClient
	cfg     Config
	handle  HandlerFunc
	log     logger.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	backoff time.Duration

	mu     sync.Mutex
	closed bool
}

// NewResponder connects to the broker and subscribes to the request topic.
// Requests are served until Close is called or ctx is canceled.
func NewResponder(ctx context.Context, cfg Config, h HandlerFunc) (*Responder, error) {
	if h == nil {
		return nil, errors.New("mqtt responder requires a handler")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	rctx, cancel := context.WithCancel(ctx)
	r := &Responder{
		cfg:     cfg,
		handle:  h,
		log:     logger.New("mqtt_responder"),
		ctx:     rctx,
		cancel:  cancel,
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
	opts.OnConnect = func(c paho.Client) {
		r.log.Infof("MQTT connected, serving %s", cfg.RequestTopic)
		if token := c.Subscribe(cfg.RequestTopic, cfg.qos("request"), r.onRequest); token.Wait() && token.Error() != nil {
			r.log.Errorf("subscribe error: %v", token.Error())
			coremon.CaptureException(token.Error(), map[string]string{"component": "mqtt", "topic": cfg.RequestTopic})
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		r.log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		r.log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		cancel()
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	r.cli = c
	return r, nil
}

func (r *Responder) onRequest(_ paho.Client, msg paho.Message) {
	r.mu.Lock()
	if r.closed || r.ctx.Err() != nil {
		r.mu.Unlock()
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()
	payload := bytes.Clone(msg.Payload())
	go func() {
		defer r.wg.Done()
		r.serve(payload)
	}()
}

func (r *Responder) serve(payload []byte) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		r.log.Warnf("discarding undecodable envelope: %v", err)
		return
	}
	if env.RequestID == "" {
		env.RequestID = uuid.NewString()
	}
	reply := Reply{RequestID: env.RequestID}
	req, err := request.Decode(bytes.NewReader(env.Request), request.FormatJSON)
	if err == nil {
		reply.Result, err = r.call(env.RequestID, req)
	}
	if err != nil {
		reply.Result = nil
		reply.Error, reply.Msg = classify(err), err.Error()
		r.log.Warnf("request %s failed: %v", env.RequestID, err)
	}
	body, err := json.Marshal(reply)
	if err != nil {
		r.log.Errorf("encode reply %s: %v", env.RequestID, err)
		return
	}
	topic := r.cfg.ReplyPrefix + "/" + env.RequestID
	if err := r.publish(topic, body); err != nil {
		r.log.Errorf("reply %s: %v", env.RequestID, err)
		coremon.CaptureException(err, map[string]string{"component": "mqtt", "topic": topic})
	}
}

// call runs the handler with the request timeout. A panicking handler is
// reported and answered as an internal error.
func (r *Responder) call(requestID string, req *request.Request) (res any, err error) {
	ctx, cancel := context.WithTimeout(r.ctx, time.Duration(r.cfg.RequestTimeoutMS)*time.Millisecond)
	defer cancel()
	defer coremon.RecoverAsError(&err)
	return r.handle(ctx, requestID, req)
}

func classify(err error) string {
	switch {
	case errors.Is(err, request.ErrInvalid):
		return "argument"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal"
	}
}

// publish retries with exponential backoff.
func (r *Responder) publish(topic string, payload []byte) error {
	var err error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		token := r.cli.Publish(topic, r.cfg.qos("reply"), false, payload)
		token.Wait()
		if err = token.Error(); err == nil {
			r.log.Debugf("published reply on %s", topic)
			return nil
		}
		r.log.Errorf("publish attempt %d failed: %v", attempt+1, err)
		if attempt < r.cfg.MaxRetries {
			time.Sleep(r.backoff * time.Duration(1<<attempt))
		}
	}
	return err
}

// Wait blocks until in-flight requests have been answered.
func (r *Responder) Wait() { r.wg.Wait() }

// Close stops accepting requests, waits for in-flight ones and disconnects.
func (r *Responder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()
	if r.cli != nil {
		r.cli.Unsubscribe(r.cfg.RequestTopic).Wait()
	}
	r.wg.Wait()
	if r.cli != nil && r.cli.IsConnected() {
		r.cli.Disconnect(250)
	}
}
