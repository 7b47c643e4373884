package dataset

import (
	"fmt"
	"net/url"
	"strings"
)

const hfScheme = "hf://"

// DefaultSource is the Spotify tracks dataset on the Hugging Face hub.
const DefaultSource = "hf://datasets/maharshipandya/spotify-tracks-dataset/dataset.csv"

// Resolve turns a dataset source into something Load can open: an http(s)
// URL or a local path. hf:// locations are mapped onto the hub's resolve
// endpoint, e.g. hf://datasets/owner/name@rev/file.csv becomes
// https://huggingface.co/datasets/owner/name/resolve/rev/file.csv.
func Resolve(source string) (string, error) {
	s := strings.TrimSpace(source)
	if s == "" {
		return "", fmt.Errorf("empty dataset source")
	}
	if !strings.HasPrefix(s, hfScheme) {
		return s, nil
	}
	parts := strings.Split(strings.TrimPrefix(s, hfScheme), "/")
	if len(parts) < 4 || parts[0] != "datasets" {
		return "", fmt.Errorf("invalid hf source %q: want hf://datasets/<owner>/<name>/<path>", source)
	}
	owner, name := parts[1], parts[2]
	rev := "main"
	if i := strings.Index(name, "@"); i >= 0 {
		name, rev = name[:i], name[i+1:]
	}
	if owner == "" || name == "" || rev == "" {
		return "", fmt.Errorf("invalid hf source %q", source)
	}
	file := strings.Join(parts[3:], "/")
	if file == "" {
		return "", fmt.Errorf("invalid hf source %q: missing file path", source)
	}
	u := url.URL{
		Scheme: "https",
		Host:   "huggingface.co",
		Path:   "/datasets/" + owner + "/" + name + "/resolve/" + rev + "/" + file,
	}
	return u.String(), nil
}

// IsRemote reports whether a resolved location must be fetched over HTTP.
func IsRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
