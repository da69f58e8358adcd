package utils

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"finflow/config"
)

// Mailer sends transactional notifications. When no SMTP host is configured
// the mailer is a no-op, so environments without mail keep working.
type Mailer struct {
	cfg config.SMTPConfig
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

// SendExportReady notifies a user that their data export can be downloaded.
func (m *Mailer) SendExportReady(to, exportID string) error {
	if !m.Enabled() {
		return nil
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Your data export is ready</h2>
			<p>The export you requested has been generated and can now be downloaded.</p>
			<p>Export ID: <b>%s</b></p>
		</body>
		</html>
	`, exportID)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your data export is ready")
	msg.SetBody("text/html", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send export notification: %w", err)
	}
	return nil
}
