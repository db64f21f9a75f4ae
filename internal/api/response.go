package api

// CanvasResponse is the JSON body returned when the caller negotiates
// application/json.
type CanvasResponse struct {
	TrackID   string `json:"trackId"`
	CanvasURL string `json:"canvasUrl,omitempty"`
	ErrorMsg  string `json:"errorMessage,omitempty"`
}
