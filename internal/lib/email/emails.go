package email

import "strconv"

// FeedbackReceived is the data of a feedback acknowledgement.
type FeedbackReceived struct {
	To         string
	Bcc        string
	FeedbackID int64
	ProgramID  string
	Semester   string
	PIName     string
}

// SendFeedbackReceivedEmail acknowledges a committed feedback form to the PI.
func (c *Client) SendFeedbackReceivedEmail(msg FeedbackReceived) error {
	// Keys must match the template placeholders.
	data := map[string]string{
		"PIName":     msg.PIName,
		"ProgramID":  msg.ProgramID,
		"Semester":   msg.Semester,
		"FeedbackID": strconv.FormatInt(msg.FeedbackID, 10),
	}

	var bcc []string
	if msg.Bcc != "" {
		bcc = []string{msg.Bcc}
	}

	return c.SendEmail(
		msg.To,
		bcc,
		"Observing feedback received for "+msg.ProgramID,
		TemplateFeedbackReceived,
		data,
	)
}
