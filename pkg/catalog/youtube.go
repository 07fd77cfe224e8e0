package catalog

import "regexp"

var youTubeIDPattern = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// YouTubeID extracts the 11-character video id from the common YouTube URL
// forms (youtu.be/ID, /embed/ID, watch?v=ID, ...). It returns "" when the
// URL carries no id of the right length.
func YouTubeID(url string) string {
	m := youTubeIDPattern.FindStringSubmatch(url)
	if m == nil || len(m[2]) != 11 {
		return ""
	}
	return m[2]
}

// WatchURL returns the canonical watch URL for a YouTube link, or the input
// unchanged when no id can be extracted.
func WatchURL(url string) string {
	if id := YouTubeID(url); id != "" {
		return "https://www.youtube.com/watch?v=" + id
	}
	return url
}
