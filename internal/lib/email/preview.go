package email

// PreviewData holds sample template data for local preview, keyed by
// template name and then template variable.
var PreviewData = map[Template]map[string]string{
	TemplateFeedbackReceived: {
		"PIName":     "Vera Rubin",
		"ProgramID":  "U123",
		"Semester":   "2024A",
		"FeedbackID": "42",
	},
}
