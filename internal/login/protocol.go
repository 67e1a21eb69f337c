package login

// CreateResponse is the payload returned when a web login session is
// created. LoginID is the opaque handle, never the platform session id.
type CreateResponse struct {
	LoginID Handle `json:"loginId"`
	QRImage string `json:"qrImg"`
}

// AttachAck acknowledges an observer's attach attempt.
type AttachAck struct {
	Confirm bool   `json:"confirm"`
	Message string `json:"message"`
}

// Outcome is the payload fanned out to observers for every non-waiting
// login result. UserID is -1 when the user is unknown (failure outcomes
// and the intermediate "scanned" report). LastLogin is the previous login
// time in epoch seconds, null unless this was a repeat login.
type Outcome struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	RepeatLogin bool   `json:"repeatLogin"`
	UserID      int64  `json:"userId"`
	UserName    string `json:"userName"`
	LastLogin   *int64 `json:"lastLogin"`
}
