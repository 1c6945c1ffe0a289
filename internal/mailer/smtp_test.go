package mailer

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTPDriverVerifiesTLSByDefault(t *testing.T) {
	d := NewSMTPDriver(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "no-reply@fieldline.local"})

	require.NotNil(t, d.dialer.TLSConfig)
	assert.False(t, d.dialer.TLSConfig.InsecureSkipVerify)
	assert.Equal(t, "smtp.example.com", d.dialer.TLSConfig.ServerName)
	assert.Equal(t, uint16(tls.VersionTLS12), d.dialer.TLSConfig.MinVersion)
}

func TestNewSMTPDriverAllowsInsecureDevRelays(t *testing.T) {
	d := NewSMTPDriver(SMTPConfig{Host: "127.0.0.1", Port: 1025, AllowInsecureTLS: true})

	assert.True(t, d.dialer.TLSConfig.InsecureSkipVerify)
}
