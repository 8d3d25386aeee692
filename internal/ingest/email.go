package ingest

import (
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"os"
	"strings"
)

// EmailLoader extracts the plain-text body of a raw .eml file as a
// single fragment. Attachments and non-text parts are skipped.
type EmailLoader struct{}

// Load implements Loader.
func (EmailLoader) Load(path string) ([]Fragment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	msg, err := mail.ReadMessage(f)
	if err != nil {
		return nil, err
	}

	body, err := extractBody(msg)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	return []Fragment{{
		Text: body,
		Meta: map[string]string{
			"subject": msg.Header.Get("Subject"),
			"date":    msg.Header.Get("Date"),
		},
	}}, nil
}

// extractBody returns the message's plain-text content, walking one
// level of multipart structure when present.
func extractBody(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		data, err := io.ReadAll(msg.Body)
		return string(data), err
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		data, err := io.ReadAll(msg.Body)
		return string(data), err
	}

	mr := multipart.NewReader(msg.Body, params["boundary"])
	var parts []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		partType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil || partType != "text/plain" {
			continue
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return "", err
		}
		parts = append(parts, strings.TrimSpace(string(data)))
	}

	return strings.Join(parts, "\n"), nil
}
