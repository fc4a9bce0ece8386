package services

import (
	"fmt"
	"time"

	"prestadiario/config"

	"gopkg.in/gomail.v2"
)

// EmailService sends transactional emails
type EmailService struct {
	dialer *gomail.Dialer
	from   string
	config *config.Config
}

// NewEmailService creates a new EmailService
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.SMTP.From,
		config: cfg,
	}
}

// SendEmail sends an email
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}

	return nil
}

// SendCreditSettledNotification notifies that a credit was fully paid
func (s *EmailService) SendCreditSettledNotification(to string, creditID uint) error {
	subject := "Crédito liquidado"
	body := fmt.Sprintf(`
		<h2>Crédito liquidado</h2>
		<p>El crédito #%d fue pagado en su totalidad.</p>
		<p>Fecha: %s</p>
	`, creditID, time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(to, subject, body)
}

// SendLiquidationShortageNotification notifies about missing cash on a closeout
func (s *EmailService) SendLiquidationShortageNotification(to string, date time.Time, shortage float64) error {
	subject := "Faltante en liquidación"
	body := fmt.Sprintf(`
		<h2>Faltante en liquidación</h2>
		<p>Fecha: %s</p>
		<p>Faltante: %.2f</p>
	`, date.Format("02.01.2006"), shortage)

	return s.SendEmail(to, subject, body)
}
