package dataset

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	sheetsPathRE = regexp.MustCompile(`^/spreadsheets/d/([A-Za-z0-9_-]+)`)
	drivePathRE  = regexp.MustCompile(`^/file/d/([A-Za-z0-9_-]+)`)
	gidRE        = regexp.MustCompile(`gid=([0-9]+)`)
)

// DirectDownloadURL rewrites Google Sheets and Google Drive share links to
// the URL that returns the raw CSV payload. Other URLs are returned as-is.
func DirectDownloadURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	switch strings.ToLower(u.Host) {
	case "docs.google.com":
		m := sheetsPathRE.FindStringSubmatch(u.Path)
		if m == nil || strings.HasSuffix(u.Path, "/export") {
			return raw
		}
		out := "https://docs.google.com/spreadsheets/d/" + m[1] + "/export?format=csv"
		if g := gidRE.FindStringSubmatch(u.RawQuery + "&" + u.Fragment); g != nil {
			out += "&gid=" + g[1]
		}
		return out

	case "drive.google.com":
		id := ""
		if m := drivePathRE.FindStringSubmatch(u.Path); m != nil {
			id = m[1]
		} else if u.Path == "/open" || u.Path == "/uc" {
			id = u.Query().Get("id")
		}
		if id == "" {
			return raw
		}
		return "https://drive.google.com/uc?export=download&id=" + id
	}

	return raw
}
