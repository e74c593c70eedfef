package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// prettyHandler renders a one-line header per record followed by indented
// key/value lines. Debug records show every attribute; info and above show a
// curated subset.
type prettyHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}

	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	kvs := make([]kv, 0, record.NumAttrs()+len(h.attrs))
	flattenAttrs(&kvs, h.groups, h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&kvs, h.groups, attr)
		return true
	})
	kvs = dedupeKVsByKey(kvs)

	component := attrValue(kvs, FieldComponent)
	documentID := attrValue(kvs, FieldDocumentID)
	stage := attrValue(kvs, FieldStage)

	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}

	var buf bytes.Buffer
	buf.Grow(256 + len(kvs)*32)
	writeLogHeader(&buf, timestamp, record.Level, component, documentID, stage, message, h.addSource, record.Source())
	buf.WriteByte('\n')

	if record.Level < slog.LevelInfo {
		for _, item := range kvs {
			if skipInfoKey(item.key) {
				continue
			}
			buf.WriteString("    ")
			buf.WriteString(item.key)
			buf.WriteString(": ")
			buf.WriteString(formatValue(item.value))
			buf.WriteByte('\n')
		}
	} else {
		fields, hidden := selectInfoFields(kvs)
		for _, field := range fields {
			buf.WriteString("    - ")
			buf.WriteString(field.label)
			buf.WriteString(": ")
			buf.WriteString(field.value)
			buf.WriteByte('\n')
		}
		if hidden > 0 {
			buf.WriteString("    + ")
			buf.WriteString(strconv.Itoa(hidden))
			buf.WriteString(" more field")
			if hidden != 1 {
				buf.WriteByte('s')
			}
			buf.WriteString(" hidden\n")
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func writeLogHeader(buf *bytes.Buffer, ts time.Time, level slog.Level, component, documentID, stage, message string, addSource bool, src *slog.Source) {
	buf.WriteString(formatTimestamp(ts))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(level))
	if component != "" {
		buf.WriteString(" [")
		buf.WriteString(component)
		buf.WriteByte(']')
	}
	if subject := FormatSubject(documentID, stage); subject != "" {
		buf.WriteByte(' ')
		buf.WriteString(subject)
	}
	buf.WriteString(" – ")
	buf.WriteString(message)
	if addSource && src != nil {
		buf.WriteString(" [")
		buf.WriteString(filepath.Base(src.File))
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(src.Line))
		buf.WriteByte(']')
	}
}

// FormatSubject builds the document/stage subject used in console output.
func FormatSubject(documentID, stage string) string {
	documentID = strings.TrimSpace(documentID)
	stage = strings.TrimSpace(stage)
	switch {
	case documentID != "" && stage != "":
		return documentID + " (" + stage + ")"
	case documentID != "":
		return documentID
	default:
		return stage
	}
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	clone.attrs = append(clone.attrs, attrs...)
	return clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *prettyHandler) clone() *prettyHandler {
	return &prettyHandler{
		mu:        h.mu,
		writer:    h.writer,
		level:     h.level,
		addSource: h.addSource,
		attrs:     append([]slog.Attr(nil), h.attrs...),
		groups:    append([]string(nil), h.groups...),
	}
}

type kv struct {
	key   string
	value slog.Value
}

func dedupeKVsByKey(attrs []kv) []kv {
	if len(attrs) < 2 {
		return attrs
	}
	positions := make(map[string]int, len(attrs))
	deduped := make([]kv, 0, len(attrs))
	for _, attr := range attrs {
		if attr.key == "" {
			continue
		}
		if pos, ok := positions[attr.key]; ok {
			deduped[pos].value = attr.value
			continue
		}
		positions[attr.key] = len(deduped)
		deduped = append(deduped, attr)
	}
	return deduped
}

func flattenAttrs(dst *[]kv, prefix []string, attrs []slog.Attr) {
	for _, attr := range attrs {
		flattenAttr(dst, prefix, attr)
	}
}

func flattenAttr(dst *[]kv, prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string(nil), prefix...), attr.Key)
		}
		flattenAttrs(dst, next, attr.Value.Group())
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(append(append([]string(nil), prefix...), attr.Key), ".")
	}
	*dst = append(*dst, kv{key: key, value: attr.Value})
}

func attrValue(attrs []kv, key string) string {
	for _, item := range attrs {
		if item.key == key {
			return attrString(item.value)
		}
	}
	return ""
}
