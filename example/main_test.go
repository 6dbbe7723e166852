package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pthm/behavioral"
	"github.com/pthm/behavioral/behaviors/logger"
	"github.com/pthm/behavioral/behaviors/reveal"
	"github.com/pthm/behavioral/lib/dom"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPageIsStamped(t *testing.T) {
	srv := newServer(slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := get(t, srv, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if n := strings.Count(body, `is="behavioral-logger-reveal"`); n != len(faqs) {
		t.Errorf("stamped answers = %d, want %d", n, len(faqs))
	}
	if !strings.Contains(body, `<dialog behavior="reveal" id="help" is="behavioral-reveal">`) {
		t.Error("dialog lost its host attributes")
	}
}

func TestFragment(t *testing.T) {
	srv := newServer(slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := get(t, srv, "/faq/1")
	body := rec.Body.String()
	if !strings.HasPrefix(body, `<section class="faq">`) || !strings.Contains(body, `is="behavioral-logger-reveal"`) {
		t.Errorf("body = %s", body)
	}
	if rec := get(t, srv, "/faq/99"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// TestAnswersToggle mounts the served page and clicks the first question.
func TestAnswersToggle(t *testing.T) {
	srv := newServer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	markup := get(t, srv, "/").Body.String()

	reg := behavioral.NewRegistry()
	reg.Add(reveal.Entry(), logger.Entry())
	td, err := behavioral.TestMount(reg, markup, behavioral.WithPayloadKey([]byte(payloadKey)))
	if err != nil {
		t.Fatal(err)
	}
	defer td.Stop()

	var button *dom.Element
	td.Doc.Walk(func(el *dom.Element) bool {
		if strings.HasPrefix(el.Attribute("commandfor"), "answer-") {
			button = el
			return false
		}
		return true
	})
	if button == nil {
		t.Fatal("no question button")
	}
	answer := td.ByID(button.Attribute("commandfor"))

	button.Click()
	if answer.HasAttribute("hidden") {
		t.Error("answer still hidden after click")
	}
	if !td.Logs.Has(slog.LevelDebug, "logger: command", "command", "--toggle") {
		t.Error("logger did not see the command")
	}
	if _, ok := td.Host("help"); !ok {
		t.Error("pre-stamped dialog not upgraded")
	}
	if n := td.Logs.Count(slog.LevelWarn) + td.Logs.Count(slog.LevelError); n != 0 {
		t.Errorf("warnings/errors: %v %v", td.Logs.Messages(slog.LevelWarn), td.Logs.Messages(slog.LevelError))
	}
}
