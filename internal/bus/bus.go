package bus

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/kubev2v/asset-agent/internal/message"
	"github.com/kubev2v/asset-agent/internal/metrics"
	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
	"github.com/kubev2v/asset-agent/pkg/scheduler"
)

// Reply headers.
const (
	HeaderStatus    = "Status"
	HeaderErrorType = "Error-Type"
	HeaderMessageID = "Message-Id"

	StatusOK    = "OK"
	StatusError = "ERROR"

	ErrorTypeNotFound      = "not-found"
	ErrorTypeInvalidFormat = "invalid-format"
	ErrorTypeConflict      = "conflict"
	ErrorTypeInternal      = "internal"
)

const drainPollInterval = 10 * time.Millisecond

type Config struct {
	ChangeSubject  string
	StreamSubject  string
	GetIDSubject   string
	RequestTimeout time.Duration
	Workers        int
}

// ChangeHandler applies an asset change and returns the stored result.
type ChangeHandler interface {
	Handle(ctx context.Context, m *message.Message) (*message.Message, error)
}

// NameResolver answers GET_ID requests.
type NameResolver interface {
	NameToAssetID(ctx context.Context, name string) (int64, error)
}

// Bus consumes asset changes, republishes the stored result on the stream subject and
// serves name to id lookups.
type Bus struct {
	nc       *nats.Conn
	cfg      Config
	handler  ChangeHandler
	resolver NameResolver
	sched    *scheduler.Scheduler[*message.Message]
	subs     []*nats.Subscription
	inflight sync.WaitGroup
	stopOnce sync.Once
	log      *zap.SugaredLogger
}

func New(nc *nats.Conn, cfg Config, handler ChangeHandler, resolver NameResolver) *Bus {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	return &Bus{
		nc:       nc,
		cfg:      cfg,
		handler:  handler,
		resolver: resolver,
		sched:    scheduler.NewScheduler[*message.Message](cfg.Workers),
		log:      zap.S().Named("bus"),
	}
}

// Start subscribes to the change and GET_ID subjects.
func (b *Bus) Start() error {
	changes, err := b.nc.Subscribe(b.cfg.ChangeSubject, b.onChange)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.cfg.ChangeSubject, err)
	}
	b.subs = append(b.subs, changes)

	lookups, err := b.nc.Subscribe(b.cfg.GetIDSubject, b.onGetID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.cfg.GetIDSubject, err)
	}
	b.subs = append(b.subs, lookups)

	b.log.Infow("bus started", "changes", b.cfg.ChangeSubject, "stream", b.cfg.StreamSubject, "get_id", b.cfg.GetIDSubject)
	return nil
}

// Stop drains the subscriptions, lets in-flight changes complete and reply, then
// closes the worker pool. The connection must stay open until Stop returns.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() {
		for _, sub := range b.subs {
			if err := sub.Drain(); err != nil {
				b.log.Warnw("failed to drain subscription", "subject", sub.Subject, "error", err)
			}
		}
		for _, sub := range b.subs {
			b.waitDrained(sub)
		}
		b.inflight.Wait()
		b.sched.Close()
		b.log.Info("bus stopped")
	})
}

// waitDrained blocks until sub has delivered its pending messages, at most RequestTimeout.
func (b *Bus) waitDrained(sub *nats.Subscription) {
	deadline := time.Now().Add(b.cfg.RequestTimeout)
	for sub.IsValid() && time.Now().Before(deadline) {
		time.Sleep(drainPollInterval)
	}
	if sub.IsValid() {
		b.log.Warnw("subscription not drained in time", "subject", sub.Subject)
	}
}

// Publish sends m on the stream subject, suffixed with the operation.
func (b *Bus) Publish(m *message.Message) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	msg := nats.NewMsg(b.cfg.StreamSubject + "." + string(m.Operation))
	msg.Header.Set(HeaderMessageID, uuid.NewString())
	msg.Data = data
	if err := b.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish %q: %w", m.Name, err)
	}
	metrics.MessagesPublished.WithLabelValues(string(m.Operation)).Inc()
	return nil
}

func (b *Bus) onChange(msg *nats.Msg) {
	m, err := message.Decode(msg.Data)
	if err == nil && m.Kind != message.KindAsset {
		err = srvErrors.NewWrongMessageTypeError(message.KindAsset, m.Kind)
	}
	if err != nil {
		b.log.Warnw("dropping invalid message", "subject", msg.Subject, "error", err)
		metrics.MessagesReceived.WithLabelValues("unknown", "invalid").Inc()
		b.respondError(msg, err)
		return
	}

	b.inflight.Add(1)
	future := b.sched.AddWork(func(ctx context.Context) (*message.Message, error) {
		return b.handler.Handle(ctx, m)
	})
	go b.complete(msg, m, future)
}

func (b *Bus) complete(msg *nats.Msg, m *message.Message, future *scheduler.Future[*message.Message]) {
	defer b.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.RequestTimeout)
	defer cancel()

	result := future.Wait(ctx)
	if result.Err != nil {
		b.log.Errorw("failed to apply asset change", "asset", m.Name, "operation", m.Operation, "error", result.Err)
		metrics.MessagesReceived.WithLabelValues(string(m.Operation), "error").Inc()
		b.respondError(msg, result.Err)
		return
	}
	metrics.MessagesReceived.WithLabelValues(string(m.Operation), "ok").Inc()

	if m.Operation != message.OpGet {
		if err := b.Publish(result.Data); err != nil {
			b.log.Errorw("failed to republish asset change", "asset", m.Name, "error", err)
		}
	}

	if msg.Reply == "" {
		return
	}
	data, err := result.Data.Encode()
	if err != nil {
		b.respondError(msg, err)
		return
	}
	b.respond(msg, StatusOK, "", data)
}

func (b *Bus) onGetID(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.RequestTimeout)
	defer cancel()

	name := string(msg.Data)
	id, err := b.resolver.NameToAssetID(ctx, name)
	if err != nil {
		b.log.Debugw("GET_ID failed", "name", name, "error", err)
		metrics.LookupRequests.WithLabelValues("error").Inc()
		b.respondError(msg, err)
		return
	}
	metrics.LookupRequests.WithLabelValues("ok").Inc()
	b.respond(msg, StatusOK, "", []byte(strconv.FormatInt(id, 10)))
}

func (b *Bus) respondError(msg *nats.Msg, err error) {
	b.respond(msg, StatusError, errorType(err), []byte(err.Error()))
}

func (b *Bus) respond(msg *nats.Msg, status, errType string, data []byte) {
	if msg.Reply == "" {
		return
	}
	reply := nats.NewMsg(msg.Reply)
	reply.Header.Set(HeaderStatus, status)
	if errType != "" {
		reply.Header.Set(HeaderErrorType, errType)
	}
	reply.Data = data
	if err := msg.RespondMsg(reply); err != nil {
		b.log.Warnw("failed to send reply", "subject", msg.Subject, "error", err)
	}
}

func errorType(err error) string {
	switch {
	case srvErrors.IsElementNotFoundError(err):
		return ErrorTypeNotFound
	case srvErrors.IsInvalidFormatError(err):
		return ErrorTypeInvalidFormat
	case srvErrors.IsConflictError(err):
		return ErrorTypeConflict
	default:
		return ErrorTypeInternal
	}
}
