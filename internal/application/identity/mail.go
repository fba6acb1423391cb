package identity

import (
	"fmt"
	"time"

	"github.com/baechuer/edu-quiz/services/identity-service/internal/domain"
)

func otpEmail(to string, o domain.OTP, ttl time.Duration) domain.Email {
	minutes := int(ttl / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	if o.Purpose == domain.OTPPasswordReset {
		return domain.Email{
			To:      to,
			Subject: "Password reset code",
			Body: fmt.Sprintf(
				"Your password reset code is %s. It is valid for %d minutes.\n\nIf you did not request a reset, you can ignore this email.",
				o.Code, minutes,
			),
		}
	}
	return domain.Email{
		To:      to,
		Subject: "Verify your email",
		Body:    fmt.Sprintf("Your verification code is %s. It is valid for %d minutes.", o.Code, minutes),
	}
}
