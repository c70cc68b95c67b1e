package smtpgw

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
)

const maxPreviewBytes = 1000

// textFromMessage extracts a plain-text preview from an email body. For
// multipart messages only text/plain parts contribute; attachments and
// nested multiparts are skipped.
func textFromMessage(msg *mail.Message) string {
	contentType := msg.Header.Get("Content-Type")

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return previewFromReader(msg.Body)
	}

	boundary, ok := params["boundary"]
	if !ok {
		return previewFromReader(msg.Body)
	}

	var text bytes.Buffer
	mr := multipart.NewReader(msg.Body, boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		partType := strings.ToLower(part.Header.Get("Content-Type"))
		if !strings.Contains(partType, "text/plain") {
			continue
		}
		partBytes, err := io.ReadAll(io.LimitReader(part, maxPreviewBytes))
		if err != nil {
			continue
		}
		text.Write(partBytes)
		text.WriteString("\n")
		if text.Len() >= maxPreviewBytes {
			break
		}
	}
	return clampPreview(text.String())
}

func previewFromReader(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxPreviewBytes+1))
	if err != nil {
		return ""
	}
	return clampPreview(string(body))
}

func clampPreview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxPreviewBytes {
		return s
	}
	// Back up to a rune boundary before cutting.
	cut := maxPreviewBytes
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
