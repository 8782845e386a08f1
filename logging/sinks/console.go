package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"hexfront/server/logging"
)

// ConsoleSink renders match events as single human-readable lines, one
// per event, for watching a match from the server terminal.
type ConsoleSink struct {
	logger *log.Logger
	color  bool
}

func NewConsoleSink(w io.Writer, cfg logging.ConsoleConfig) *ConsoleSink {
	return &ConsoleSink{
		logger: log.New(w, "", log.LstdFlags),
		color:  cfg.UseColor,
	}
}

func (s *ConsoleSink) Write(event logging.Event) error {
	if s.logger == nil {
		return nil
	}
	s.logger.Printf("%s [%s] turn=%d seq=%d actor=%s%s%s",
		s.severityTag(event.Severity), event.Type, event.Turn, event.Seq,
		describeRef(event.Actor), refList(event.Targets), payloadJSON(event.Payload))
	return nil
}

func (s *ConsoleSink) Close(context.Context) error {
	return nil
}

func (s *ConsoleSink) severityTag(sev logging.Severity) string {
	tag, tint := "?????", ""
	switch sev {
	case logging.SeverityDebug:
		tag, tint = "DEBUG", "\x1b[90m"
	case logging.SeverityInfo:
		tag, tint = "INFO ", "\x1b[36m"
	case logging.SeverityWarn:
		tag, tint = "WARN ", "\x1b[33m"
	case logging.SeverityError:
		tag, tint = "ERROR", "\x1b[31m"
	}
	if !s.color || tint == "" {
		return tag
	}
	return tint + tag + "\x1b[0m"
}

func describeRef(ref logging.EntityRef) string {
	switch {
	case ref.ID == "":
		return string(ref.Kind)
	case ref.Kind == "":
		return ref.ID
	default:
		return fmt.Sprintf("%s:%s", ref.Kind, ref.ID)
	}
}

func refList(targets []logging.EntityRef) string {
	if len(targets) == 0 {
		return ""
	}
	parts := make([]string, 0, len(targets))
	for _, target := range targets {
		parts = append(parts, describeRef(target))
	}
	return " targets=" + strings.Join(parts, ",")
}

func payloadJSON(payload any) string {
	if payload == nil {
		return ""
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(" payload=%v", payload)
	}
	return " payload=" + string(data)
}
