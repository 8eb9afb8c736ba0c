package service

import (
	"strings"

	"github.com/xeenaps/pkm/internal/port/filestore"
)

func fileUpload(body string) filestore.Upload {
	return filestore.Upload{Name: "doc.json", MimeType: "application/json", Data: []byte(body)}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
