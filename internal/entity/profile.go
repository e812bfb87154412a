package entity

import "context"

// Profile is the agent (account owner) behind outbound messages. The
// dispatcher only needs the signature fields.
type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Company  string `json:"company,omitempty"`
}

// AgentName falls back to a generic signature when the profile has no
// display name set.
func (p *Profile) AgentName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return "Your Real Estate Agent"
}

type ProfileRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Profile, error)
}
