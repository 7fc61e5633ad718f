package server

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	domainerrors "todoapp/internal/domain/errors"

	"github.com/gin-gonic/gin"
)

// Responses shorter than this are sent as is.
const gzipMinSize = 1024

var compressibleTypes = []string{
	"application/json",
	"application/problem+json",
	"text/plain",
	"text/html",
}

type gzipBody struct {
	*gzip.Reader
	body io.ReadCloser
}

func (b *gzipBody) Close() error {
	return errors.Join(b.Reader.Close(), b.body.Close())
}

// GzipRequestDecompress transparently inflates bodies sent with
// Content-Encoding: gzip.
func GzipRequestDecompress() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !strings.Contains(strings.ToLower(ctx.GetHeader("Content-Encoding")), "gzip") {
			ctx.Next()
			return
		}

		zr, err := gzip.NewReader(ctx.Request.Body)
		if err != nil {
			abortWithError(ctx, fmt.Errorf("%w: %w", domainerrors.ErrBadRequest, domainerrors.ErrInvalidGzipRequest))
			return
		}
		ctx.Request.Body = &gzipBody{Reader: zr, body: ctx.Request.Body}
		ctx.Request.Header.Del("Content-Encoding")
		ctx.Request.Header.Del("Content-Length")
		ctx.Request.ContentLength = -1
		ctx.Next()
	}
}

// bufferedGzipWriter holds the body until the handler returns so the
// encoding decision can look at the final size and content type.
type bufferedGzipWriter struct {
	gin.ResponseWriter
	buf         bytes.Buffer
	passthrough bool
}

func (w *bufferedGzipWriter) Write(p []byte) (int, error) {
	if w.passthrough {
		return w.ResponseWriter.Write(p)
	}
	return w.buf.Write(p)
}

func (w *bufferedGzipWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Flush gives up on compression: whatever was buffered goes out plain and
// later writes skip the buffer.
func (w *bufferedGzipWriter) Flush() {
	if !w.passthrough {
		w.passthrough = true
		if w.buf.Len() > 0 {
			_, _ = w.ResponseWriter.Write(w.buf.Bytes())
			w.buf.Reset()
		}
	}
	w.ResponseWriter.Flush()
}

func (w *bufferedGzipWriter) compressible() bool {
	if w.buf.Len() < gzipMinSize || w.Header().Get("Content-Encoding") != "" {
		return false
	}
	ct := strings.ToLower(w.Header().Get("Content-Type"))
	for _, prefix := range compressibleTypes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

func (w *bufferedGzipWriter) finish() error {
	if w.passthrough || w.buf.Len() == 0 {
		return nil
	}
	if !w.compressible() {
		_, err := w.ResponseWriter.Write(w.buf.Bytes())
		return err
	}

	w.Header().Del("Content-Length")
	w.Header().Set("Content-Encoding", "gzip")
	zw := gzip.NewWriter(w.ResponseWriter)
	if _, err := zw.Write(w.buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %v", domainerrors.ErrGzipCompressionFailed, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: %v", domainerrors.ErrGzipCompressionFailed, err)
	}
	return nil
}

// GzipResponseCompress compresses large text responses for clients that
// advertise gzip support.
func GzipResponseCompress() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method == http.MethodHead ||
			!strings.Contains(strings.ToLower(ctx.GetHeader("Accept-Encoding")), "gzip") {
			ctx.Next()
			return
		}

		if vary := ctx.Writer.Header().Get("Vary"); vary == "" {
			ctx.Header("Vary", "Accept-Encoding")
		} else if !strings.Contains(vary, "Accept-Encoding") {
			ctx.Header("Vary", vary+", Accept-Encoding")
		}

		gw := &bufferedGzipWriter{ResponseWriter: ctx.Writer}
		ctx.Writer = gw
		ctx.Next()

		if err := gw.finish(); err != nil {
			_ = ctx.Error(err)
		}
		ctx.Writer = gw.ResponseWriter
	}
}
