// Package email sends transactional mail for the cardroom over plain SMTP.
package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

type smtpSender func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

var defaultSender smtpSender = smtp.SendMail

// inviteTemplate renders the body of the room invite message
var inviteTemplate = template.Must(template.New("invite").Parse(`<p>Your room {{.Name}} is ready.</p>
<p>Players can join with the code <strong>{{.Code}}</strong>.</p>`))

// Client is a client capable of sending email
type Client struct {
	auth               smtp.Auth
	from, sender, host string
}

// NewClient returns a new email client
func NewClient(from, sender, username, password, host string) (*Client, error) {
	hostParts := strings.Split(host, ":")
	if len(hostParts) != 2 {
		return nil, errors.New("host must have a port")
	}

	return &Client{
		auth:   smtp.PlainAuth("", username, password, hostParts[0]),
		from:   from,
		sender: sender,
		host:   host,
	}, nil
}

// SendRoomInvite emails the join code for a newly created room to the room's
// contact address
func (c *Client) SendRoomInvite(to, roomName, code string) error {
	buf := bytes.Buffer{}
	if err := inviteTemplate.Execute(&buf, struct {
		Name, Code string
	}{roomName, code}); err != nil {
		return err
	}

	return c.send(to, fmt.Sprintf("Join code for %s", roomName), buf.String())
}

// send sends a text/html email
func (c *Client) send(to, subject, msg string) error {
	buffer := bytes.Buffer{}
	buffer.WriteString("To: " + to + "\n")
	buffer.WriteString("From: " + c.from + "\n")
	buffer.WriteString("Subject: " + subject + "\n")
	buffer.WriteString("Content-Type: text/html\n\n")
	buffer.WriteString(msg)

	return defaultSender(c.host, c.auth, c.sender, []string{to}, buffer.Bytes())
}
