package dto

// Notice is a user-visible message box: a caption and a message, never raw error text.
type Notice struct {
	Caption string `json:"caption"`
	Message string `json:"message"`
}
