// Package mailer envia os e-mails transacionais (recuperação de senha) via SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"

	"siteadmin/internal/pkg/logger"
)

// Message é um e-mail pronto para envio. HTML é o corpo principal; Text, a alternativa.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer envia mensagens.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig são os parâmetros do servidor SMTP e do remetente.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPMailer envia pelo gomail, abrindo uma conexão por mensagem.
type SMTPMailer struct {
	from     string
	fromName string
	send     func(msgs ...*gomail.Message) error
}

// NewSMTPMailer cria o mailer SMTP.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPMailer{from: cfg.From, fromName: cfg.FromName, send: dialer.DialAndSend}
}

// New devolve o SMTPMailer, ou um mailer que só registra no log quando cfg.Host está vazio.
func New(cfg SMTPConfig, log logger.Logger) Mailer {
	if cfg.Host == "" {
		log.Warn("SMTP_HOST não definido: e-mails serão apenas registrados no log.", nil)
		return NewLogMailer(log)
	}
	return NewSMTPMailer(cfg)
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return errors.New("mailer: destinatário vazio")
	}
	if msg.HTML == "" && msg.Text == "" {
		return errors.New("mailer: corpo vazio")
	}

	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.from, m.fromName)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	if msg.HTML != "" {
		gm.SetBody("text/html", msg.HTML)
		if msg.Text != "" {
			gm.AddAlternative("text/plain", msg.Text)
		}
	} else {
		gm.SetBody("text/plain", msg.Text)
	}

	if err := m.send(gm); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// LogMailer não envia nada: registra destinatário e assunto, e o texto em debug.
type LogMailer struct {
	logger logger.Logger
}

// NewLogMailer cria o mailer de desenvolvimento.
func NewLogMailer(log logger.Logger) *LogMailer {
	return &LogMailer{logger: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("E-mail não enviado (SMTP desativado).", map[string]interface{}{"to": msg.To, "subject": msg.Subject})
	m.logger.Debug("Conteúdo do e-mail.", map[string]interface{}{"to": msg.To, "text": msg.Text})
	return nil
}
