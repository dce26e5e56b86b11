package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookieName = "expense_flash"

// Flash is a one-shot message surfaced on the next rendered page.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// setFlashes stores messages in a short-lived cookie read by the next request.
// The payload is base64-encoded JSON to survive cookie value restrictions.
func setFlashes(w http.ResponseWriter, flashes []Flash) {
	if len(flashes) == 0 {
		return
	}
	payload, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.URLEncoding.EncodeToString(payload),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes reads pending messages and clears the cookie.
func popFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	payload, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}

	var flashes []Flash
	if err := json.Unmarshal(payload, &flashes); err != nil {
		return nil
	}
	return flashes
}

func flashSuccess(w http.ResponseWriter, message string) {
	setFlashes(w, []Flash{{Level: "success", Message: message}})
}

func flashErrors(w http.ResponseWriter, messages []string) {
	flashes := make([]Flash, 0, len(messages))
	for _, m := range messages {
		flashes = append(flashes, Flash{Level: "error", Message: m})
	}
	setFlashes(w, flashes)
}
