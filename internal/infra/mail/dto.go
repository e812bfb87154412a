package mail

type FollowUpEmailData struct {
	RecipientName   string
	PropertyAddress string
	Message         string
	AgentName       string
	AgentPhone      string
	AgentEmail      string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}
