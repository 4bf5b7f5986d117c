package scoring

import (
	"crypto/sha256"
	"strings"
)

var palette = [...]string{
	"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A",
	"#19D3F3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// TeamColor maps a team name to a stable display colour.
func TeamColor(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return palette[0]
	}
	digest := sha256.Sum256([]byte(key))
	return palette[int(digest[0])%len(palette)]
}
