package whatsapp

type SendMessageInput struct {
	PhoneNumber  string   // Ex: "15550102030" (no leading +)
	TemplateName string   // Ex: "follow_up_notification"
	Parameters   []string // Ex: []string{"John", "Nadine Khalil"}
}

type SendMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Contacts []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Error *ErrorResponse `json:"error"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}
