package model

// Language is the candidate's UI language preference.
type Language string

const (
	LanguageArabic  Language = "ar"
	LanguageEnglish Language = "en"
)

// Identity is what a candidate enters on the login screen.
type Identity struct {
	UserName    string `json:"user_name"`
	IDNumber    string `json:"id_number"`
	PhoneNumber string `json:"phone_number"`
}

// Complete reports whether every identity field is present.
func (i Identity) Complete() bool {
	return i.UserName != "" && i.IDNumber != "" && i.PhoneNumber != ""
}

// CandidateLoginRequest is the payload for candidate sign-in.
type CandidateLoginRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=255"`
	IDNumber    string   `json:"id_number" binding:"required,len=10,numeric"`
	PhoneNumber string   `json:"phone_number" binding:"required,jo_phone"`
	Language    Language `json:"language" binding:"omitempty,oneof=ar en"`
}

// Identity extracts the candidate identity from the login payload.
func (r CandidateLoginRequest) Identity() Identity {
	return Identity{UserName: r.Name, IDNumber: r.IDNumber, PhoneNumber: r.PhoneNumber}
}

// CandidateLoginResponse is returned after a successful candidate sign-in.
type CandidateLoginResponse struct {
	Token     string   `json:"token"`
	SessionID string   `json:"session_id"`
	Identity  Identity `json:"identity"`
	Language  Language `json:"language"`
}

// SavedProgress is the autosaved state of a candidate session.
type SavedProgress struct {
	Identity         Identity `json:"identity"`
	Language         Language `json:"language"`
	Started          bool     `json:"started"`
	Answers          Answers  `json:"answers"`
	Flags            []int    `json:"flagged_questions"`
	RemainingSeconds *int     `json:"remaining_seconds"`
}
