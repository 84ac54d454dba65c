// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON slog logger writing to stdout and, when path is not
// empty, appending to the file at path. The returned closer releases the
// file.
func New(path string, level slog.Level) (*slog.Logger, io.Closer, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if path != "" {
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file
	}
	return NewWithWriter(out, level), closer, nil
}

func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
