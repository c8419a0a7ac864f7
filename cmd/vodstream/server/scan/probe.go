package scan

import (
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sincaw/vodstream/pkg"
)

const (
	sniffLen    = 512
	octetStream = "application/octet-stream"
)

// system mime tables often miss video containers
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".ogv":  "video/ogg",
	".ts":   "video/mp2t",
	".avi":  "video/x-msvideo",
}

type fileInfo struct {
	mime    string
	modTime time.Time
}

func probe(p string) (fileInfo, error) {
	st, err := os.Stat(p)
	if err != nil {
		return fileInfo{}, err
	}
	// catalog stores times with millisecond precision
	info := fileInfo{modTime: st.ModTime().UTC().Truncate(time.Millisecond)}

	info.mime = mimeByExt(filepath.Ext(p))
	if info.mime == "" {
		info.mime, err = sniff(p)
		if err != nil {
			return fileInfo{}, err
		}
	}
	return info, nil
}

func mimeByExt(ext string) string {
	ext = strings.ToLower(ext)
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

func sniff(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	if n == 0 {
		return octetStream, nil
	}
	return http.DetectContentType(buf[:n]), nil
}

func isNotFound(err error) bool {
	return errors.Is(err, pkg.ErrNotFound)
}
