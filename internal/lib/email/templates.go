package email

// Template names an HTML file under the templates directory.
type Template string

const (
	// TemplateFeedbackReceived corresponds to templates/emails/feedback_received.html
	TemplateFeedbackReceived Template = "feedback_received"
)
