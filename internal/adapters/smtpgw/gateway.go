package smtpgw

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/alexch/msg-triage/internal/core"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultCategoryHeader = "X-Triage-Category"

// Gateway is an SMTP front end: it accepts mail, classifies it, stamps the
// category into a header and relays the message upstream. Mail is never
// rejected on classification grounds; the worst outcome is an important stamp.
type Gateway struct {
	service        *core.TriageService
	logger         *zap.Logger
	listenAddr     string
	relayAddr      string
	categoryHeader string
	server         *smtp.Server
}

// NewGateway creates a new SMTP gateway
func NewGateway(service *core.TriageService, logger *zap.Logger, listenAddr, relayAddr, categoryHeader string) *Gateway {
	if categoryHeader == "" {
		categoryHeader = defaultCategoryHeader
	}
	return &Gateway{
		service:        service,
		logger:         logger,
		listenAddr:     listenAddr,
		relayAddr:      relayAddr,
		categoryHeader: categoryHeader,
	}
}

// Start starts the SMTP gateway
func (g *Gateway) Start() error {
	g.server = smtp.NewServer(&backend{gateway: g})
	g.server.Addr = g.listenAddr
	g.server.Domain = "localhost"
	g.server.ReadTimeout = 30 * time.Second
	g.server.WriteTimeout = 30 * time.Second
	g.server.MaxMessageBytes = 10 * 1024 * 1024
	g.server.MaxRecipients = 50
	g.server.AllowInsecureAuth = true

	g.logger.Info("SMTP gateway starting",
		zap.String("address", g.listenAddr),
		zap.String("relay", g.relayAddr))

	go func() {
		if err := g.server.ListenAndServe(); err != nil && err != smtp.ErrServerClosed {
			g.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the SMTP gateway
func (g *Gateway) Stop() error {
	if g.server != nil {
		return g.server.Close()
	}
	return nil
}

// relay forwards the stamped message to the upstream SMTP server.
func (g *Gateway) relay(sender string, recipients []string, data []byte) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", g.relayAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			g.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			accepted = true
		}
	}
	if !accepted {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		g.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// backend implements the go-smtp Backend interface
type backend struct {
	gateway *Gateway
}

func (b *backend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &session{
		gateway:    b.gateway,
		recipients: make([]string, 0),
	}, nil
}

// session implements the go-smtp Session interface
type session struct {
	gateway    *Gateway
	sender     string
	recipients []string
}

func (s *session) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

func (s *session) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

func (s *session) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

func (s *session) Logout() error {
	return nil
}

// Data classifies the incoming message and relays it with the category header
// prepended. The original headers and body bytes pass through untouched.
func (s *session) Data(r io.Reader) error {
	g := s.gateway

	raw, err := io.ReadAll(r)
	if err != nil {
		g.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		g.logger.Error("Failed to parse message", zap.Error(err))
		return err
	}

	msg := messageFromMail(parsed, s.sender)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	g.service.ClassifyBatch(ctx, []*core.Message{msg})
	category := msg.Category
	if !category.Valid() {
		category = core.CategoryImportant
	}

	var stamped bytes.Buffer
	fmt.Fprintf(&stamped, "%s: %s\r\n", g.categoryHeader, category)
	for key, values := range parsed.Header {
		for _, value := range values {
			fmt.Fprintf(&stamped, "%s: %s\r\n", key, value)
		}
	}
	stamped.WriteString("\r\n")
	stamped.Write(bodyBytes(raw, parsed))

	if err := g.relay(s.sender, s.recipients, stamped.Bytes()); err != nil {
		g.logger.Error("Failed to relay message",
			zap.Error(err),
			zap.String("sender", s.sender))
		return err
	}

	g.logger.Info("Relayed message",
		zap.String("sender", s.sender),
		zap.String("category", string(category)))
	return nil
}

// messageFromMail builds a triage message from a parsed email.
func messageFromMail(parsed *mail.Message, envelopeSender string) *core.Message {
	id := strings.Trim(parsed.Header.Get("Message-Id"), "<>")
	if id == "" {
		id = uuid.NewString()
	}

	sender := envelopeSender
	if from := parsed.Header.Get("From"); from != "" {
		if addr, err := mail.ParseAddress(from); err == nil {
			sender = addr.Address
		}
	}

	return &core.Message{
		ID:        id,
		Subject:   parsed.Header.Get("Subject"),
		Sender:    sender,
		Preview:   textFromMessage(parsed),
		Timestamp: parsed.Header.Get("Date"),
	}
}

// bodyBytes locates the original body in the raw message so MIME parts and
// attachments survive the relay byte for byte.
func bodyBytes(raw []byte, parsed *mail.Message) []byte {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i != -1 {
		return raw[i+4:]
	}
	if i := bytes.Index(raw, []byte("\n\n")); i != -1 {
		return raw[i+2:]
	}
	body, err := io.ReadAll(parsed.Body)
	if err != nil {
		return nil
	}
	return body
}
