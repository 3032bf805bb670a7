package notification

import (
	"time"

	"examreg/internal/platform/config"
)

func smtpConfigForTest() config.SMTPConfig {
	return config.SMTPConfig{
		Host:    "127.0.0.1",
		Port:    2525,
		From:    "noreply@example.edu",
		Timeout: time.Second,
	}
}
