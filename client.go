package rmqbus

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/txix-open/rmqbus/receive"
	"github.com/txix-open/rmqbus/send"
	"github.com/txix-open/rmqbus/topology"
	"go.uber.org/atomic"
)

type closer interface {
	Close() error
}

type DialConfig struct {
	amqp.Config
	DialTimeout time.Duration
}

// Client provisions a topology layout on every connection
// and attaches send transports and receive endpoints to entities of that layout.
// It reconnects until Shutdown.
type Client struct {
	url              string
	dialConfig       DialConfig
	layout           *topology.Layout
	layoutErr        error
	sendTransports   []*send.Transport
	receiveEndpoints []receive.Endpoint
	reconnectTimeout time.Duration
	observer         Observer

	mustReconnect *atomic.Bool

	reportErrOnce      *sync.Once
	firstOccurredError chan error

	close            chan struct{}
	shutdownDone     chan struct{}
	shutdownDoneOnce *sync.Once
}

func New(url string, options ...ClientOption) *Client {
	c := &Client{
		url: url,
		dialConfig: DialConfig{
			Config: amqp.Config{
				Heartbeat: 10 * time.Second,
				Locale:    "en_US",
			},
			DialTimeout: 30 * time.Second,
		},
		layout:             topology.NewBuilder().BuildTopologyLayout(),
		reconnectTimeout:   1 * time.Second,
		mustReconnect:      atomic.NewBool(true),
		reportErrOnce:      &sync.Once{},
		firstOccurredError: make(chan error, 1),
		close:              make(chan struct{}),
		shutdownDone:       make(chan struct{}),
		shutdownDoneOnce:   &sync.Once{},
		observer:           NoopObserver{},
	}
	for _, opt := range options {
		opt(c)
	}

	if c.dialConfig.Dial == nil {
		timeout := c.dialConfig.DialTimeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		c.dialConfig.Dial = amqp.DefaultDial(timeout)
	}

	return c
}

// Run
// Block and wait first successfully established session
// It means the layout was declared successfully
// All send transports were attached to their exchanges
// All receive endpoints consume their queues
// Returns first occurred error during first session opening or nil
// Send transports and receive endpoints missing from the layout fail before dialing
func (s *Client) Run(ctx context.Context) error {
	plan, err := s.plan()
	if err != nil {
		s.markShutdownDone()
		return err
	}

	go s.run(ctx, plan)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-s.firstOccurredError:
		if err != nil {
			s.mustReconnect.Store(false)
		}
		return err
	}
}

// Serve
// Similar to Run but doesn't wait first successful session
// Just pass to Observer occurred errors and reconnect
func (s *Client) Serve(ctx context.Context) {
	plan, err := s.plan()
	if err != nil {
		s.observer.ClientError(err)
		s.markShutdownDone()
		return
	}
	go s.run(ctx, plan)
}

func (s *Client) plan() (*attachments, error) {
	if s.layoutErr != nil {
		return nil, errors.WithMessage(s.layoutErr, "build topology")
	}
	plan, err := attach(s.layout, s.sendTransports, s.receiveEndpoints)
	if err != nil {
		return nil, errors.WithMessage(err, "attach to layout")
	}
	return plan, nil
}

func (s *Client) run(ctx context.Context, plan *attachments) {
	defer s.markShutdownDone()

	for {
		err := s.runSession(plan)
		if err == nil { //normal close
			return
		}

		s.observer.ClientError(err)

		if !s.mustReconnect.Load() {
			return //prevent goroutine leak for Run if error occurred
		}

		select {
		case <-ctx.Done():
			s.observer.ClientError(ctx.Err())
			return
		case <-s.close:
			return //shutdown called
		case <-time.After(s.reconnectTimeout):

		}
	}
}

func (s *Client) runSession(plan *attachments) (err error) {
	defer func() {
		if err != nil {
			s.reportFirstOccurredErrorOnes(err)
		}
	}()

	conn, err := amqp.DialConfig(s.url, s.dialConfig.Config)
	if err != nil {
		return errors.WithMessage(err, "dial")
	}
	defer conn.Close()
	connCloseChan := conn.NotifyClose(make(chan *amqp.Error, 1))
	connBlockedChan := conn.NotifyBlocked(make(chan amqp.Blocking, 1))

	err = s.declare(conn)
	if err != nil {
		return err
	}

	closers := make([]closer, 0, len(plan.sends)+len(plan.receives))
	defer func() {
		for i := len(closers); i > 0; i-- {
			_ = closers[i-1].Close()
		}
	}()

	for _, attachment := range plan.sends {
		ch, err := conn.Channel()
		if err != nil {
			return errors.WithMessagef(err, "create channel for exchange '%s'", attachment.exchange.Name)
		}
		session := newSendSession(attachment, plan, ch, s.observer)
		closers = append(closers, session)
		err = session.Run()
		if err != nil {
			return errors.WithMessagef(err, "attach send transport to exchange '%s'", attachment.exchange.Name)
		}
	}

	for _, attachment := range plan.receives {
		ch, err := conn.Channel()
		if err != nil {
			return errors.WithMessagef(err, "create channel for queue '%s'", attachment.queue.Name)
		}
		session := newReceiveSession(attachment, ch, s.observer)
		err = session.Run()
		if err != nil {
			_ = ch.Close()
			return errors.WithMessagef(err, "attach receive endpoint to queue '%s'", attachment.queue.Name)
		}
		closers = append(closers, session)
	}

	s.reportFirstOccurredErrorOnes(nil) //to unblock Run

	s.observer.ClientReady()

	for {
		select {
		case blocking, isOpen := <-connBlockedChan:
			if !isOpen {
				return errors.New("block channel unexpectedly closed")
			}
			if blocking.Active {
				s.observer.ConnectionBlocked(blocking)
			}
		case err, isOpen := <-connCloseChan:
			if !isOpen {
				return errors.New("error channel unexpectedly closed")
			}
			return err
		case <-s.close:
			return nil
		}
	}
}

func (s *Client) declare(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.WithMessage(err, "create channel for declarator")
	}
	declarator := NewDeclarator(s.layout, ch)
	err = declarator.Run()
	if err != nil {
		return errors.WithMessage(err, "run declarator")
	}
	err = declarator.Close()
	if err != nil {
		return errors.WithMessage(err, "close declarator")
	}
	return nil
}

// Shutdown
// Perform graceful shutdown
func (s *Client) Shutdown() {
	close(s.close)
	s.observer.ShutdownStarted()
	<-s.shutdownDone
	s.observer.ShutdownDone()
}

func (s *Client) markShutdownDone() {
	s.shutdownDoneOnce.Do(func() {
		close(s.shutdownDone)
	})
}

func (s *Client) reportFirstOccurredErrorOnes(err error) {
	s.reportErrOnce.Do(func() {
		s.firstOccurredError <- err
	})
}
