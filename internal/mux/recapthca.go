package mux

import (
	"time"

	grecaptcha "github.com/ezzarghili/recaptcha-go"
	"github.com/sirupsen/logrus"

	"cardroom-server/internal/config"
)

type recaptcha interface {
	// Verify will verify the token is valid
	Verify(token string) error
}

// newRecaptcha returns nil if no secret is configured
func newRecaptcha() recaptcha {
	secret := config.Instance().RecaptchaSecret
	if secret == "" {
		return nil
	}

	captcha, err := grecaptcha.NewReCAPTCHA(secret, grecaptcha.V3, 10*time.Second)
	if err != nil {
		logrus.WithError(err).Fatal("could not load recaptcha")
	}

	return &captcha
}
