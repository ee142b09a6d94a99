package httperr

// Response is the error body shape shared by the error-handling middleware.
// Status travels out-of-band so handlers can attach it to the gin error meta
// without leaking it into the JSON payload.
type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}
