package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookie = "splittie_flash"

// Flash kinds.
const (
	flashSuccess = "success"
	flashError   = "error"
	flashWarning = "warning"
)

// Flashes are one-shot messages keyed by kind, shown on the next page view.
type Flashes map[string][]string

func readFlashes(r *http.Request) Flashes {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return Flashes{}
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return Flashes{}
	}
	var f Flashes
	if err := json.Unmarshal(raw, &f); err != nil || f == nil {
		return Flashes{}
	}
	return f
}

type flash struct {
	kind string
	text string
}

func success(text string) flash { return flash{kind: flashSuccess, text: text} }
func failure(text string) flash { return flash{kind: flashError, text: text} }

// addFlash queues messages on top of any already pending for the client.
// Empty messages are skipped. Call it once per response.
func addFlash(w http.ResponseWriter, r *http.Request, msgs ...flash) {
	f := readFlashes(r)
	added := false
	for _, m := range msgs {
		if m.text == "" {
			continue
		}
		f[m.kind] = append(f[m.kind], m.text)
		added = true
	}
	if !added {
		return
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes returns pending messages and clears them.
func popFlashes(w http.ResponseWriter, r *http.Request) Flashes {
	f := readFlashes(r)
	if len(f) > 0 {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return f
}
