package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sushihentaime/blogsphere/internal/common"
	"golang.org/x/exp/rand"
)

func NewMailService(mb common.MessageConsumer, host, username, password, sender string, port int, logger *slog.Logger) *MailService {
	return newMailService(mb, NewMailer(host, port, username, password, sender, NewTemplate()), logger)
}

func newMailService(mb common.MessageConsumer, m Mailer, logger MailLogger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:         mb,
		m:          m,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
	}
}

// SendWelcomeEmails consumes user.created messages in the background and sends each new
// user a welcome e-mail. It returns once consuming has started.
func (s *MailService) SendWelcomeEmails() error {
	msgs, err := s.mb.Consume(common.UserCreatedKey, common.UserExchange, common.UserCreatedQueue)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				s.handle(msg)

			case <-s.ctx.Done():
				s.logger.Info("stopping welcome e-mails due to context cancellation")
				return
			}
		}
	}()

	return nil
}

// handle sends the welcome e-mail for one message. Every message is acknowledged, even
// when it can not be decoded or delivered, so a bad message is not redelivered forever.
func (s *MailService) handle(msg amqp.Delivery) {
	defer func() {
		if err := msg.Ack(false); err != nil {
			s.logger.Warn("could not acknowledge message", slog.String("error", err.Error()))
		}
	}()

	var event userCreated
	if err := json.Unmarshal(msg.Body, &event); err != nil || event.Email == "" {
		s.logger.Error("could not decode user.created message", slog.String("body", string(msg.Body)))
		return
	}

	data := welcomeData{FirstName: event.FirstName, LastName: event.LastName}
	if err := s.deliver(event.Email, data); err != nil {
		s.logger.Error("could not send welcome email", slog.String("email", event.Email), slog.String("error", err.Error()))
		return
	}

	s.logger.Info("welcome email sent", slog.String("email", event.Email))
}

// deliver tries to send up to maxRetries times, sleeping a random delay below
// baseDelay<<attempt between tries.
func (s *MailService) deliver(recipient string, data any) error {
	var err error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err = s.m.send(recipient, data, WelcomeTemplate)
		if err == nil {
			return nil
		}
		if attempt == s.maxRetries-1 {
			break
		}

		delay := time.Duration(rand.Int63n(int64(s.baseDelay) << uint(attempt)))
		s.logger.Info("delaying welcome email", slog.String("email", recipient), slog.Int("attempt", attempt), slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return s.ctx.Err()
		}
	}

	return err
}

// Close stops consuming and waits for the message being handled.
func (s *MailService) Close() {
	s.cancel()
	s.wg.Wait()
}
