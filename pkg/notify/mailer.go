// Package notify e-mails raised threshold alerts.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sguter90/fieldmaestro/pkg/ingest"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// IdleTimeout closes the SMTP connection when no mail was sent for this long
const IdleTimeout = 30 * time.Second

// Config holds the SMTP settings. Mail is disabled when Host is empty.
type Config struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// Enabled reports whether alerts should be mailed
func (c Config) Enabled() bool {
	return c.Host != "" && len(c.To) > 0
}

// Dialer opens SMTP connections; *gomail.Dialer satisfies it
type Dialer interface {
	Dial() (gomail.SendCloser, error)
}

// Mailer queues alert mails and sends them from one goroutine
type Mailer struct {
	cfg         Config
	dialer      Dialer
	queue       chan *gomail.Message
	idleTimeout time.Duration
	logger      logrus.FieldLogger
}

// NewMailer creates a mailer for cfg
func NewMailer(cfg Config, logger logrus.FieldLogger) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return newMailer(cfg, gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), logger)
}

func newMailer(cfg Config, dialer Dialer, logger logrus.FieldLogger) *Mailer {
	return &Mailer{
		cfg:         cfg,
		dialer:      dialer,
		queue:       make(chan *gomail.Message, 100),
		idleTimeout: IdleTimeout,
		logger:      logger.WithField("component", "notify"),
	}
}

// OnIngest queues a mail when the event raised an alert. A full queue drops
// the mail.
func (m *Mailer) OnIngest(_ context.Context, event ingest.Event) {
	if event.Alert == nil {
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", m.cfg.To...)
	msg.SetHeader("Subject", fmt.Sprintf("[FieldMaestro] %s: %s sensor", event.Alert.Type, event.Sensor.Type))
	msg.SetBody("text/plain", fmt.Sprintf(
		"%s\n\nSensor: %s (%s)\nType: %s\nTime: %s\n",
		event.Alert.Message,
		event.Sensor.Description,
		event.Sensor.ID,
		event.Sensor.Type,
		event.Alert.Timestamp.Format(time.RFC3339),
	))

	select {
	case m.queue <- msg:
	default:
		m.logger.WithField("alert_id", event.Alert.ID).Warn("Mail queue full, dropping alert mail")
	}
}

// Run sends queued mails until ctx is cancelled. The SMTP connection is
// opened lazily and closed after the idle timeout.
func (m *Mailer) Run(ctx context.Context) {
	var s gomail.SendCloser
	open := false

	closeConn := func() {
		if !open {
			return
		}
		if err := s.Close(); err != nil {
			m.logger.WithError(err).Warn("Failed to close SMTP connection")
		}
		open = false
	}
	defer closeConn()

	idle := time.NewTimer(m.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg := <-m.queue:
			if !open {
				var err error
				if s, err = m.dialer.Dial(); err != nil {
					m.logger.WithError(err).Error("❌ Failed to connect to SMTP server")
					continue
				}
				open = true
			}

			if err := gomail.Send(s, msg); err != nil {
				m.logger.WithError(err).Error("❌ Failed to send alert mail")
			} else {
				m.logger.Debug("✓ Alert mail sent")
			}

			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(m.idleTimeout)

		case <-idle.C:
			closeConn()
			idle.Reset(m.idleTimeout)
		}
	}
}
