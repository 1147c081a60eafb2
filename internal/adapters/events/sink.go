package events

import (
	"io"
	"log"

	"github.com/keeperbot/monzoo-keeper/internal/ports"
)

// Writer prints events to a stream, used for terminal output in watch mode.
type Writer struct {
	logger *log.Logger
}

var _ ports.EventSink = (*Writer)(nil)

func NewWriter(w io.Writer) *Writer {
	return &Writer{logger: log.New(w, "", log.LstdFlags)}
}

func (w *Writer) Emit(level ports.EventLevel, message string) {
	w.logger.Printf("%-5s %s", level, message)
}

// Tee fans one event out to several sinks.
type Tee struct {
	sinks []ports.EventSink
}

var _ ports.EventSink = (*Tee)(nil)

func NewTee(sinks ...ports.EventSink) *Tee {
	return &Tee{sinks: sinks}
}

func (t *Tee) Emit(level ports.EventLevel, message string) {
	for _, sink := range t.sinks {
		sink.Emit(level, message)
	}
}
