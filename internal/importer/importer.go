// Package importer parses exported chat logs into conversations. It supports
// plain-text transcripts, JSON message dumps, and CSV exports, with format
// auto-detection.
package importer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pulselabs/conversation-pulse/internal/model"
)

// Format identifies a chat-log format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatTxt  Format = "txt"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ErrNoMessages is returned when a log parses cleanly but contains no usable
// messages.
var ErrNoMessages = errors.New("chat log contains no messages")

// Transcript lines look like "2024-01-02 15:04:05 Alice: message text".
// Untimed "Speaker: text" lines are accepted; other lines continue the
// previous message.
var lineRe = regexp.MustCompile(`^(?:(\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2})\s+)?([^:：]+)[:：]\s*(.*)$`)

const timeLayout = "2006-01-02 15:04:05"

// rawMessage is the format-independent intermediate record.
type rawMessage struct {
	Timestamp time.Time
	Speaker   string
	Content   string
}

// jsonMessage mirrors the message objects found in JSON chat exports.
type jsonMessage struct {
	Timestamp string `json:"timestamp"`
	Time      string `json:"time"`
	Speaker   string `json:"speaker"`
	Sender    string `json:"sender"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Message   string `json:"message"`
	Text      string `json:"text"`
}

// Importer converts chat logs into conversations.
type Importer struct {
	now func() time.Time
}

// New creates a chat-log importer.
func New() *Importer {
	return &Importer{now: time.Now}
}

// Import parses a chat log into a single conversation. With FormatAuto the
// format is sniffed from the content.
func (im *Importer) Import(data []byte, format Format, title string) (*model.Conversation, error) {
	if format == FormatAuto || format == "" {
		format = DetectFormat(data)
	}

	var (
		msgs []rawMessage
		err  error
	)
	switch format {
	case FormatJSON:
		msgs, err = parseJSON(data)
	case FormatCSV:
		msgs, err = parseCSV(data)
	case FormatTxt:
		msgs, err = parseTxt(data)
	default:
		return nil, fmt.Errorf("unsupported chat-log format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, ErrNoMessages
	}

	return im.assemble(msgs, title)
}

// DetectFormat sniffs the chat-log format from its content.
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatTxt
	}
	if trimmed[0] == '[' || trimmed[0] == '{' {
		return FormatJSON
	}
	firstLine := trimmed
	if i := bytes.IndexByte(trimmed, '\n'); i >= 0 {
		firstLine = trimmed[:i]
	}
	if bytes.Count(firstLine, []byte(",")) >= 2 && !bytes.ContainsAny(firstLine, ":：") {
		return FormatCSV
	}
	return FormatTxt
}

func (im *Importer) assemble(msgs []rawMessage, title string) (*model.Conversation, error) {
	now := im.now()
	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if conv.Title == "" {
		conv.Title = "Imported conversation " + conv.ID[:8]
	}

	// Speakers alternate between user and assistant roles: the first speaker
	// seen maps to user, every other speaker to assistant.
	var firstSpeaker string
	fallback := now
	for _, m := range msgs {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if firstSpeaker == "" {
			firstSpeaker = m.Speaker
		}

		ts := m.Timestamp
		if ts.IsZero() {
			ts = fallback
		}
		fallback = ts.Add(time.Second)

		turn, err := model.NewTurn(conv.ID, speakerRole(m.Speaker, firstSpeaker), m.Content, ts)
		if err != nil {
			return nil, fmt.Errorf("invalid message from %q: %w", m.Speaker, err)
		}
		turn.Metadata = map[string]string{"speaker": m.Speaker}

		if err := conv.AddTurn(turn); err != nil {
			return nil, err
		}
	}

	if len(conv.Turns) == 0 {
		return nil, ErrNoMessages
	}
	return conv, nil
}

func speakerRole(speaker, firstSpeaker string) model.Role {
	switch strings.ToLower(strings.TrimSpace(speaker)) {
	case "user", "me", "我":
		return model.RoleUser
	case "assistant", "bot", "ai", "system":
		return model.RoleAssistant
	}
	if speaker == firstSpeaker {
		return model.RoleUser
	}
	return model.RoleAssistant
}

func parseTxt(data []byte) ([]rawMessage, error) {
	var msgs []rawMessage
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			// Continuation of the previous message.
			if len(msgs) > 0 {
				msgs[len(msgs)-1].Content += "\n" + line
			}
			continue
		}

		var ts time.Time
		if m[1] != "" {
			parsed, err := time.Parse(timeLayout, strings.Replace(m[1], "T", " ", 1))
			if err == nil {
				ts = parsed
			}
		}

		msgs = append(msgs, rawMessage{
			Timestamp: ts,
			Speaker:   strings.TrimSpace(m[2]),
			Content:   m[3],
		})
	}
	return msgs, nil
}

func parseJSON(data []byte) ([]rawMessage, error) {
	var list []jsonMessage

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		// Wrapped exports: {"messages": [...]} or {"chat": {"messages": [...]}}.
		var wrapper struct {
			Messages []jsonMessage `json:"messages"`
			Chat     *struct {
				Messages []jsonMessage `json:"messages"`
			} `json:"chat"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("invalid JSON chat log: %w", err)
		}
		switch {
		case len(wrapper.Messages) > 0:
			list = wrapper.Messages
		case wrapper.Chat != nil:
			list = wrapper.Chat.Messages
		}
	} else {
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("invalid JSON chat log: %w", err)
		}
	}

	msgs := make([]rawMessage, 0, len(list))
	for _, jm := range list {
		msg := rawMessage{
			Speaker: firstNonEmpty(jm.Speaker, jm.Sender, jm.Role),
			Content: firstNonEmpty(jm.Content, jm.Message, jm.Text),
		}
		if raw := firstNonEmpty(jm.Timestamp, jm.Time); raw != "" {
			msg.Timestamp = parseTimestamp(raw)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func parseCSV(data []byte) ([]rawMessage, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var msgs []rawMessage
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid CSV chat log: %w", err)
		}
		if len(record) < 3 {
			continue
		}
		if header {
			header = false
			if looksLikeHeader(record) {
				continue
			}
		}
		msgs = append(msgs, rawMessage{
			Timestamp: parseTimestamp(record[0]),
			Speaker:   record[1],
			Content:   record[2],
		})
	}
	return msgs, nil
}

func looksLikeHeader(record []string) bool {
	for _, field := range record {
		switch strings.ToLower(strings.TrimSpace(field)) {
		case "time", "timestamp", "date", "speaker", "sender", "role", "content", "message", "text":
			return true
		}
	}
	return false
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{timeLayout, time.RFC3339, "2006-01-02T15:04:05", "2006/01/02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
