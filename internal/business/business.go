// Package business provides the per-business context used while rendering
// and dispatching notifications: display name, logo, formatting preferences
// and channel settings.
package business

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("business not found")

type Currency struct {
	Symbol            string `json:"symbol"`
	Placement         string `json:"placement"`
	ThousandSeparator string `json:"thousand_separator"`
	DecimalSeparator  string `json:"decimal_separator"`
	Precision         int32  `json:"precision"`
}

type EmailSettings struct {
	Driver      string `json:"mail_driver"`
	Host        string `json:"mail_host"`
	Port        int    `json:"mail_port"`
	Username    string `json:"mail_username"`
	Password    string `json:"mail_password"`
	Encryption  string `json:"mail_encryption"`
	FromAddress string `json:"mail_from_address"`
	FromName    string `json:"mail_from_name"`
}

type SMSParam struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type SMSSettings struct {
	URL             string     `json:"url"`
	SendToParamName string     `json:"send_to_param_name"`
	MsgParamName    string     `json:"msg_param_name"`
	RequestMethod   string     `json:"request_method"`
	Params          []SMSParam `json:"params"`
}

// Configured reports whether enough of the gateway is set up to send.
func (s SMSSettings) Configured() bool {
	return strings.TrimSpace(s.URL) != "" &&
		strings.TrimSpace(s.SendToParamName) != "" &&
		strings.TrimSpace(s.MsgParamName) != ""
}

type Profile struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	Logo       string        `json:"logo"`
	Currency   Currency      `json:"currency"`
	DateFormat string        `json:"date_format"`
	TimeFormat int           `json:"time_format"`
	Email      EmailSettings `json:"email_settings"`
	SMS        SMSSettings   `json:"sms_settings"`
}

type Directory interface {
	Profile(ctx context.Context, businessID int64) (Profile, error)
}
