package behavioral

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/pthm/behavioral/lib/dom"
)

// Render writes a templ component to the HTTP response.
//
// Sets Content-Type to text/html and renders the component using the
// request's context.
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    behavioral.Render(w, r, page())
//	}
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// IsPartial returns true if the request asks for a fragment rather than a
// full page. htmx sends HX-Request: true on every request it makes.
func IsPartial(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// StampHTML stamps the is attribute onto every candidate in markup and
// returns the new markup with the number of stamped elements. When partial
// is true, markup is treated as a fragment and rendered back without the
// document wrapper. Markup with no candidates is returned unchanged.
func (rt *Runtime) StampHTML(markup []byte, partial bool) ([]byte, int, error) {
	var doc *dom.Document
	var err error
	if partial {
		doc, err = dom.ParseFragment(bytes.NewReader(markup), dom.WithLogger(rt.logger))
	} else {
		doc, err = dom.Parse(bytes.NewReader(markup), dom.WithLogger(rt.logger))
	}
	if err != nil {
		return nil, 0, err
	}

	root := doc.DocumentElement()
	if root == nil {
		return markup, 0, nil
	}
	n := rt.Stamp(root)
	if n == 0 {
		return markup, 0, nil
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), n, nil
}

// Middleware stamps HTML responses from next so that plain elements with a
// behavior attribute arrive as hosts. Non-HTML responses pass through
// untouched. Responses are buffered, so streaming handlers lose
// incremental flushing.
func (rt *Runtime) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &bufferedResponse{header: make(http.Header), status: http.StatusOK}
		next.ServeHTTP(rec, r)

		body := rec.body.Bytes()
		if isHTML(rec.header) && len(body) > 0 {
			stamped, n, err := rt.StampHTML(body, IsPartial(r) || !IsDocument(body))
			switch {
			case err != nil:
				rt.logger.Warn("behavioral: stamping response failed", "path", r.URL.Path, "error", err)
			case n > 0:
				body = stamped
				rt.logger.Debug("behavioral: stamped response", "path", r.URL.Path, "elements", n)
			}
		}

		for k, v := range rec.header {
			w.Header()[k] = v
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(rec.status)
		_, _ = w.Write(body)
	})
}

// bufferedResponse captures a handler's response for rewriting.
type bufferedResponse struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (b *bufferedResponse) Header() http.Header {
	return b.header
}

func (b *bufferedResponse) WriteHeader(status int) {
	if b.wroteHeader {
		return
	}
	b.wroteHeader = true
	b.status = status
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.WriteHeader(http.StatusOK)
	return b.body.Write(p)
}

func isHTML(h http.Header) bool {
	mediaType, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	return err == nil && mediaType == "text/html"
}

// IsDocument reports whether markup starts like a complete document rather
// than a fragment.
func IsDocument(markup []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(markup))
	if len(head) > 64 {
		head = head[:64]
	}
	return bytes.HasPrefix(head, []byte("<!doctype")) || bytes.HasPrefix(head, []byte("<html"))
}
