package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
)

// palette holds the styles of a pretty handler. Styles render without escape
// sequences when the output is not a color terminal.
type palette struct {
	key, str, num, boolean, msg lipgloss.Style
	level                       map[slog.Level]lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }

	return palette{
		key:     fg("8"),
		str:     fg("6"),
		num:     fg("3"),
		boolean: fg("5"),
		msg:     r.NewStyle().Bold(true),
		level: map[slog.Level]lipgloss.Style{
			slog.Level(LevelTrace): fg("8"),
			slog.LevelDebug:        fg("4"),
			slog.LevelInfo:         fg("2"),
			slog.LevelWarn:         fg("3"),
			slog.LevelError:        fg("1").Bold(true),
		},
	}
}

func (p palette) levelStyle(l slog.Level) lipgloss.Style {
	for _, at := range []slog.Level{slog.LevelError, slog.LevelWarn, slog.LevelInfo, slog.LevelDebug} {
		if l >= at {
			return p.level[at]
		}
	}

	return p.level[slog.Level(LevelTrace)]
}

// prettyHandler writes colorized records, either as key=value text on one
// line or as indented JSON.
type prettyHandler struct {
	opts   slog.HandlerOptions
	format Format
	pal    palette
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	groups []string
}

func newPrettyHandler(w io.Writer, format Format, opts *slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{
		opts:   *opts,
		format: format,
		pal:    newPalette(w),
		mu:     &sync.Mutex{},
		w:      w,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}

	return level >= threshold
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = slices.Concat(h.attrs, nest(h.groups, attrs))

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = slices.Concat(h.groups, []string{name})

	return &c
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	head := make([]slog.Attr, 0, 4)

	if !r.Time.IsZero() {
		head = append(head, slog.Time(slog.TimeKey, r.Time))
	}

	head = append(head, slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil && src.File != "" {
			head = append(head, slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	head = append(head, slog.String(slog.MessageKey, r.Message))

	for i, a := range head {
		if h.opts.ReplaceAttr != nil {
			head[i] = h.opts.ReplaceAttr(nil, a)
		}
	}

	body := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		body = append(body, a)

		return true
	})

	all := slices.Concat(head, h.attrs, nest(h.groups, body))

	var buf bytes.Buffer

	if h.format == FormatJSON {
		h.writeObject(&buf, r.Level, all, 1)
	} else {
		h.writeText(&buf, r.Level, "", all)
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// nest wraps attrs in the open groups, innermost last.
func nest(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(attrs) == 0 {
		return nil
	}

	for i := len(groups) - 1; i >= 0; i-- {
		attrs = []slog.Attr{{Key: groups[i], Value: slog.GroupValue(attrs...)}}
	}

	return attrs
}

func (h *prettyHandler) writeText(buf *bytes.Buffer, level slog.Level, prefix string, attrs []slog.Attr) {
	for _, a := range attrs {
		v := a.Value.Resolve()
		if a.Key == "" && v.Kind() != slog.KindGroup {
			continue
		}

		key := prefix + a.Key

		if v.Kind() == slog.KindGroup {
			if a.Key != "" {
				key += "."
			}

			h.writeText(buf, level, key, v.Group())

			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(h.pal.key.Render(key + "="))
		buf.WriteString(h.styleValue(level, key, v, textValue(v)))
	}
}

func (h *prettyHandler) writeObject(buf *bytes.Buffer, level slog.Level, attrs []slog.Attr, depth int) {
	indent := strings.Repeat("  ", depth)
	first := true

	buf.WriteByte('{')

	for _, a := range attrs {
		v := a.Value.Resolve()
		if a.Key == "" {
			continue
		}

		if !first {
			buf.WriteByte(',')
		}

		first = false

		buf.WriteByte('\n')
		buf.WriteString(indent)
		buf.WriteString(h.pal.key.Render(strconv.Quote(a.Key)))
		buf.WriteString(": ")

		if v.Kind() == slog.KindGroup {
			h.writeObject(buf, level, v.Group(), depth+1)

			continue
		}

		buf.WriteString(h.styleValue(level, a.Key, v, jsonValue(v)))
	}

	if !first {
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat("  ", depth-1))
	}

	buf.WriteByte('}')
}

func (h *prettyHandler) styleValue(level slog.Level, key string, v slog.Value, s string) string {
	switch {
	case key == slog.LevelKey:
		return h.pal.levelStyle(level).Render(s)
	case key == slog.MessageKey:
		return h.pal.msg.Render(s)
	}

	switch v.Kind() {
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindDuration:
		return h.pal.num.Render(s)
	case slog.KindBool:
		return h.pal.boolean.Render(s)
	default:
		return h.pal.str.Render(s)
	}
}

func textValue(v slog.Value) string {
	if err, ok := v.Any().(error); ok && v.Kind() == slog.KindAny {
		return err.Error()
	}

	return v.String()
}

func jsonValue(v slog.Value) string {
	var x any

	switch v.Kind() {
	case slog.KindString:
		x = v.String()
	case slog.KindInt64:
		x = v.Int64()
	case slog.KindUint64:
		x = v.Uint64()
	case slog.KindFloat64:
		x = v.Float64()
	case slog.KindBool:
		x = v.Bool()
	case slog.KindDuration:
		x = v.Duration().String()
	case slog.KindTime:
		x = v.Time()
	default:
		x = v.Any()
		if err, ok := x.(error); ok {
			x = err.Error()
		}
	}

	b, err := json.Marshal(x)
	if err != nil {
		return strconv.Quote(fmt.Sprint(x))
	}

	return string(b)
}
