/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


// Package log sets up the editor's slog logger: one-line console records or JSON,
// an optional size-rotated JSON file, and a "doc" attribute taken from the context
// for records about a specific keymap.
package log

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"keymapeditor/internal/version"
)

// Options controls Init. The zero value logs INFO and above to stderr in the
// console format.
type Options struct {
	Level     string // debug, info, warn or error
	Format    string // "console" or "json"
	AddSource bool
	File      string    // rotated JSON log, in addition to the console
	MaxSizeMB int       // rotation size for File; DefaultMaxSizeMB if zero
	Writer    io.Writer // console destination; os.Stderr if nil
}

// Environment variables read by FromEnv.
const (
	EnvLevel   = "KME_LOG_LEVEL"
	EnvFormat  = "KME_LOG_FORMAT"
	EnvFile    = "KME_LOG_FILE"
	EnvSource  = "KME_LOG_SOURCE"
	EnvMaxSize = "KME_LOG_MAX_SIZE_MB"
)

const (
	// AppName is attached to every record as the app attribute.
	AppName = "keymapeditor"
	// DocKey is the attribute holding the keymap path set by WithDocument.
	DocKey = "doc"

	DefaultMaxSizeMB = 10
	keptLogFiles     = 3
	keptLogDays      = 28
)

var (
	mu       sync.RWMutex
	current  *slog.Logger
	rotating *lj.Logger
)

// L returns the application logger. Until Init is called it is configured from
// the environment.
func L() *slog.Logger {
	if l := loaded(); l != nil {
		return l
	}
	Init(FromEnv())
	return loaded()
}

func loaded() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Init replaces the application logger and slog.Default. A rotated file opened by
// an earlier Init is closed.
func Init(opts Options) {
	level := parseLevel(opts.Level)
	sinks := []slog.Handler{consoleHandler(opts, level)}
	var file *lj.Logger
	if path := strings.TrimSpace(opts.File); path != "" {
		size := opts.MaxSizeMB
		if size <= 0 {
			size = DefaultMaxSizeMB
		}
		file = &lj.Logger{Filename: path, MaxSize: size, MaxBackups: keptLogFiles, MaxAge: keptLogDays, Compress: true}
		sinks = append(sinks, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level, AddSource: opts.AddSource}))
	}
	var h slog.Handler = fanout(sinks)
	if len(sinks) == 1 {
		h = sinks[0]
	}
	logger := slog.New(docHandler{h}).With(
		slog.String("app", AppName),
		slog.String("ver", version.Version),
	)

	mu.Lock()
	prev := rotating
	current, rotating = logger, file
	mu.Unlock()
	slog.SetDefault(logger)
	if prev != nil {
		_ = prev.Close()
	}
}

func consoleHandler(opts Options, level slog.Level) slog.Handler {
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level, AddSource: opts.AddSource})
	}
	return &lineHandler{w: out, mu: &sync.Mutex{}, level: level, source: opts.AddSource}
}

// FromEnv builds Options from the KME_LOG_* variables.
func FromEnv() Options {
	opts := Options{
		Level:     envOr(EnvLevel, "info"),
		Format:    envOr(EnvFormat, "console"),
		AddSource: strings.EqualFold(os.Getenv(EnvSource), "true"),
		File:      os.Getenv(EnvFile),
	}
	if n, err := strconv.Atoi(os.Getenv(EnvMaxSize)); err == nil && n > 0 {
		opts.MaxSizeMB = n
	}
	return opts
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// WithComponent returns the application logger with the component attribute set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates l with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type docKey struct{}

// WithDocument returns a context whose log records carry path as the doc attribute.
func WithDocument(ctx context.Context, path string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, docKey{}, path)
}

// DocumentFrom returns the keymap path stored by WithDocument.
func DocumentFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	p, ok := ctx.Value(docKey{}).(string)
	return p, ok && p != ""
}

// docHandler adds the doc attribute from the record's context.
type docHandler struct{ slog.Handler }

func (h docHandler) Handle(ctx context.Context, r slog.Record) error {
	if p, ok := DocumentFrom(ctx); ok {
		r = r.Clone()
		r.AddAttrs(slog.String(DocKey, p))
	}
	return h.Handler.Handle(ctx, r)
}

func (h docHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return docHandler{h.Handler.WithAttrs(attrs)}
}

func (h docHandler) WithGroup(name string) slog.Handler { return docHandler{h.Handler.WithGroup(name)} }

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// lineHandler writes one line per record:
//
//	2025-01-02T15:04:05Z INF document saved component=editor op=save nodes=3
//
// Attributes added with WithAttrs are formatted once, when they are added.
type lineHandler struct {
	w      io.Writer
	mu     *sync.Mutex
	level  slog.Level
	source bool
	prefix string
	attrs  string
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool { return level >= h.level }

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(ts.Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(levelTag(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	if h.source && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		b.WriteString(" src=")
		b.WriteString(filepath.Base(f.File))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(f.Line))
	}
	b.WriteByte('\n')
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&b, h.prefix, a)
	}
	c := *h
	c.attrs = b.String()
	return &c
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, g := range a.Value.Group() {
			writeAttr(b, prefix, g)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(valueText(a.Value))
}

// valueText quotes strings that would otherwise break the key=value layout.
func valueText(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\r\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func levelTag(l slog.Level) string {
	switch l {
	case slog.LevelDebug:
		return "DBG"
	case slog.LevelInfo:
		return "INF"
	case slog.LevelWarn:
		return "WRN"
	case slog.LevelError:
		return "ERR"
	default:
		return l.String()
	}
}
