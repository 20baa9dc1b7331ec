package render

import (
	"encoding/json"
	"net/http"
)

// JSON writes data as the response body with the given status. Every JSON
// response in the service goes through here so the shape cannot drift
// between handlers and middleware.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
