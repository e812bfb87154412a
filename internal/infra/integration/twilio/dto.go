package twilio

type SendSMSResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	Message      string `json:"message"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}
