// Package librarytest provides a scriptable library.Library for tests.
package librarytest

import (
	"io"
	"sync"

	"github.com/SayaAndy/saya-today-webp-converter/internal/library"
)

var _ library.Library = (*Library)(nil)

// Library fakes a backend. Zero value is a present library that reports
// JPEG, PNG and WEBP. When Backend is set, Load, Strip and EncodeWebp are
// delegated to a real session unless the matching *Err field is set.
type Library struct {
	Absent        bool
	PanicOnLoaded bool
	PanicOnOpen   bool
	OpenErr       error
	Formats       []string
	FormatsErr    error

	Backend       library.Library
	LoadErr       error
	StripErr      error
	EncodeErr     error
	PanicOnEncode bool
	// PartialWrite is written to the sink before EncodeErr is returned.
	PartialWrite  []byte

	mu     sync.Mutex
	opened int
	closed int
}

func (l *Library) Name() string {
	return "fake"
}

func (l *Library) Loaded() bool {
	if l.PanicOnLoaded {
		panic("shared library not found")
	}
	return !l.Absent
}

func (l *Library) Open() (library.Session, error) {
	if l.PanicOnOpen {
		panic("corrupt install")
	}
	if l.OpenErr != nil {
		return nil, l.OpenErr
	}

	sess := &session{lib: l}
	if l.Backend != nil {
		inner, err := l.Backend.Open()
		if err != nil {
			return nil, err
		}
		sess.inner = inner
	}

	l.mu.Lock()
	l.opened++
	l.mu.Unlock()
	return sess, nil
}

// Balance returns how many sessions were opened and closed.
func (l *Library) Balance() (opened, closed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opened, l.closed
}

type session struct {
	lib   *Library
	inner library.Session
}

func (s *session) Formats() ([]string, error) {
	if s.lib.FormatsErr != nil {
		return nil, s.lib.FormatsErr
	}
	if s.lib.Formats != nil {
		return s.lib.Formats, nil
	}
	return []string{"JPEG", "PNG", library.FormatWebp}, nil
}

func (s *session) Load(path string) error {
	if s.lib.LoadErr != nil {
		return s.lib.LoadErr
	}
	if s.inner != nil {
		return s.inner.Load(path)
	}
	return nil
}

func (s *session) Strip() error {
	if s.lib.StripErr != nil {
		return s.lib.StripErr
	}
	if s.inner != nil {
		return s.inner.Strip()
	}
	return nil
}

func (s *session) EncodeWebp(w io.Writer, quality int) error {
	if s.lib.PanicOnEncode {
		panic("encoder crashed")
	}
	if s.lib.EncodeErr != nil {
		if len(s.lib.PartialWrite) > 0 {
			_, _ = w.Write(s.lib.PartialWrite)
		}
		return s.lib.EncodeErr
	}
	if s.inner != nil {
		return s.inner.EncodeWebp(w, quality)
	}
	_, err := w.Write([]byte("RIFF\x00\x00\x00\x00WEBP"))
	return err
}

func (s *session) Close() {
	if s.inner != nil {
		s.inner.Close()
	}
	s.lib.mu.Lock()
	s.lib.closed++
	s.lib.mu.Unlock()
}
