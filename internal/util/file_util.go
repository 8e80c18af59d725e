package util

import (
	"path"
	"strings"

	"github.com/gosimple/slug"
)

func ClampText(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > max {
		return string(r[:max])
	}
	return s
}

func ExtFromFilenameOrMime(filename, mime string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext != "" {
		return ext
	}
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mp4", "audio/x-m4a":
		return ".m4a"
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	default:
		return ".bin"
	}
}

// SafeBaseName turns an uploaded filename into an object-path friendly stem.
// Japanese titles are transliterated by slug; anything left empty becomes "file".
func SafeBaseName(filename string) string {
	name := strings.TrimSpace(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	base := strings.TrimSuffix(name, path.Ext(name))
	s := slug.Make(base)
	if len(s) > 60 {
		s = strings.Trim(s[:60], "-")
	}
	if s == "" || s == "." {
		return "file"
	}
	return s
}
