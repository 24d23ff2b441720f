package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

var brWriterPool = sync.Pool{
	New: func() any {
		return brotli.NewWriter(nil)
	},
}

type brotliResponseWriter struct {
	http.ResponseWriter
	w           *brotli.Writer
	wroteHeader bool
	compress    bool
}

func (w *brotliResponseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	// 204 and 304 must not carry a body, so only 200 is compressed.
	if code == http.StatusOK {
		w.compress = true
		w.Header().Del("Content-Length")
		w.Header().Set("Content-Encoding", "br")
	}
	w.Header().Add("Vary", "Accept-Encoding")
	w.ResponseWriter.WriteHeader(code)
}

func (w *brotliResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if !w.compress {
		return w.ResponseWriter.Write(b)
	}
	return w.w.Write(b)
}

// Flush implements the http.Flusher interface
func (w *brotliResponseWriter) Flush() {
	if w.compress {
		w.w.Flush()
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Brotli compresses successful responses for clients that accept br.
func Brotli(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "br") || w.Header().Get("Content-Encoding") != "" {
			next.ServeHTTP(w, r)
			return
		}

		bw := brWriterPool.Get().(*brotli.Writer)
		defer brWriterPool.Put(bw)
		bw.Reset(w)

		brw := &brotliResponseWriter{ResponseWriter: w, w: bw}
		defer func() {
			if brw.compress {
				bw.Close()
			}
		}()

		next.ServeHTTP(brw, r)
	})
}
