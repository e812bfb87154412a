package fub

type CreateNoteInput struct {
	PersonID int    `json:"personId"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

type NoteResponse struct {
	ID      int    `json:"id"`
	Message string `json:"message,omitempty"`
}
