// Package extract turns a raw RFC 822 message into the flat attribute
// record the workflow evaluator runs against.
package extract

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"time"

	gomessage "github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/bugport/mailflow/pkg/workflow"
)

// Fields parses a raw message and returns its attribute record. It
// never fails: malformed input still yields a record with best-effort
// or empty values plus an "error" attribute, so a broken message can
// still flow through the graph and reach a disposition.
func Fields(raw []byte, logger *slog.Logger) (rec workflow.Record) {
	if logger == nil {
		logger = slog.Default()
	}

	rec = workflow.Record{
		"from":       "",
		"to":         "",
		"subject":    "",
		"date":       "",
		"message_id": "",
		"body":       "",
		"size":       len(raw),
		"headers":    map[string][]string{},
		"timestamp":  time.Now().Format(time.RFC3339),
	}

	// Parsing must not escape this boundary under any circumstances.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while extracting message fields", "panic", r)
			rec["error"] = "message parse failure"
		}
	}()

	entity, err := gomessage.Read(bytes.NewReader(raw))
	if err != nil && !gomessage.IsUnknownCharset(err) {
		logger.Warn("failed to parse message", "error", err)
		rec["error"] = err.Error()
		return rec
	}

	header := mail.Header{Header: entity.Header}

	rec["from"] = headerText(header, "From")
	rec["to"] = headerText(header, "To")
	rec["date"] = entity.Header.Get("Date")
	rec["message_id"] = entity.Header.Get("Message-Id")
	rec["headers"] = entity.Header.Map()

	if subject, err := header.Subject(); err == nil {
		rec["subject"] = subject
	} else {
		rec["subject"] = entity.Header.Get("Subject")
	}

	rec["body"] = plaintextBody(entity, logger)

	return rec
}

// headerText returns the decoded text of a header field, falling back
// to the raw value when decoding fails.
func headerText(header mail.Header, key string) string {
	if text, err := header.Text(key); err == nil {
		return text
	}
	return header.Get(key)
}

// plaintextBody walks the MIME structure and concatenates every
// text/plain part in document order. A non-multipart message
// contributes its body only when its content type is text/plain (the
// default when no Content-Type header is present). Messages with no
// text/plain part at all yield the empty string.
func plaintextBody(entity *gomessage.Entity, logger *slog.Logger) string {
	var body strings.Builder
	collectPlaintext(entity, &body, logger)
	return body.String()
}

func collectPlaintext(entity *gomessage.Entity, body *strings.Builder, logger *slog.Logger) {
	mediaType, _, err := entity.Header.ContentType()
	if err != nil || mediaType == "" {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := entity.MultipartReader()
		if mr == nil {
			return
		}
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return
			}
			if err != nil {
				logger.Warn("failed to read message part", "error", err)
				return
			}
			collectPlaintext(part, body, logger)
		}
	}

	if mediaType != "text/plain" {
		return
	}

	content, err := io.ReadAll(entity.Body)
	if err != nil {
		logger.Warn("failed to read message body", "error", err)
		return
	}
	body.Write(content)
}
