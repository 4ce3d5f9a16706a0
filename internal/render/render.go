// Package render substitutes placeholder tags in notification templates with
// values derived from a transaction or booking.
package render

import "strings"

type Message struct {
	Subject   string `json:"subject"`
	EmailBody string `json:"email_body"`
	SMSBody   string `json:"sms_body"`
}

// Render replaces every occurrence of each known tag in tmpl with its value.
// Matching is literal and case-sensitive; unknown tokens are left as they are.
// Substitution is a single pass, so a value that itself looks like a tag is
// never expanded again.
func Render(tmpl string, tags *TagMap) string {
	if tmpl == "" || tags == nil {
		return tmpl
	}
	var pairs []string
	for _, tag := range tags.order {
		if !strings.Contains(tmpl, tag) {
			continue
		}
		value, _ := tags.Value(tag)
		pairs = append(pairs, tag, value)
	}
	if len(pairs) == 0 {
		return tmpl
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// RenderMessage applies one TagMap to the subject and both bodies so all
// three reflect the same record snapshot.
func RenderMessage(subject, emailBody, smsBody string, tags *TagMap) Message {
	return Message{
		Subject:   Render(subject, tags),
		EmailBody: Render(emailBody, tags),
		SMSBody:   Render(smsBody, tags),
	}
}
