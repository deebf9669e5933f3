package utils

import "regexp"

var youTubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/v/([a-zA-Z0-9_-]{11})`),
}

// YouTubeVideoID extracts the 11 character video id from watch, short,
// embed and /v/ URLs.  It returns "" when url matches none of them.
func YouTubeVideoID(url string) string {
	for _, p := range youTubePatterns {
		if m := p.FindStringSubmatch(url); len(m) == 2 {
			return m[1]
		}
	}
	return ""
}
