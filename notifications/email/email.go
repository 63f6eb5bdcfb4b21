// Package email sends the transactional mails drained from the welcome
// queue over plain SMTP.
package email

import (
	"fmt"
	"net/smtp"
)

// Mailer holds the SMTP endpoint and sender credentials.
type Mailer struct {
	addr string
	host string
	from string
	auth smtp.Auth
}

// New creates a Mailer and verifies the SMTP server is reachable.
func New(host string, port int, sender, password string) (*Mailer, error) {
	m := &Mailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		host: host,
		from: sender,
		auth: smtp.PlainAuth("", sender, password, host),
	}

	c, err := smtp.Dial(m.addr)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to the SMTP server: %v", err)
	}
	if err := c.Close(); err != nil {
		return nil, fmt.Errorf("cannot close the SMTP connection: %v", err)
	}
	return m, nil
}

var subjects = map[string]string{
	"en": "Welcome to ChoReward!",
	"ru": "Добро пожаловать в ChoReward!",
	"pl": "Witamy w ChoReward!",
}

var bodies = map[string]string{
	"en": "Your account is ready. Schedule this week's chores and start earning points!",
	"ru": "Ваш аккаунт готов. Запланируйте задачи на эту неделю и начинайте зарабатывать баллы!",
	"pl": "Twoje konto jest gotowe. Zaplanuj zadania na ten tydzień i zacznij zbierać punkty!",
}

// SendWelcome sends the localized welcome mail, falling back to English for
// unknown locales.
func (m *Mailer) SendWelcome(to, locale string) error {
	subject, ok := subjects[locale]
	if !ok {
		subject = subjects["en"]
		locale = "en"
	}
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.from, to, subject, bodies[locale],
	))
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("cannot send welcome email: %v", err)
	}
	return nil
}
