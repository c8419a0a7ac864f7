package rangeserve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
)

const defaultBufferSize = 32 << 10

var bufPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, defaultBufferSize)
		return &b
	},
}

// execute sends headers of w and copies exactly the window bytes of res into it.
// Errors before headers are committed wrap ErrResourceNotFound,
// errors after that wrap ErrStreamIO.
func execute(ctx context.Context, res Resource, win Window, w http.ResponseWriter, headOnly bool, notify func(State)) (int64, error) {
	f, err := os.Open(res.Path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrResourceNotFound, err)
	}
	defer f.Close()

	h := w.Header()
	h.Set("Content-Type", res.contentType())
	h.Set("Content-Range", win.ContentRange())
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Length", strconv.FormatInt(win.Length(), 10))
	w.WriteHeader(http.StatusPartialContent)
	notify(StateHeadersSent)

	if headOnly {
		return 0, nil
	}

	notify(StateStreaming)
	bp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bp)

	// hide io.ReaderFrom of the response so the copy goes through the fixed buffer
	sink := struct{ io.Writer }{w}
	src := &ctxReader{ctx: ctx, r: io.NewSectionReader(f, win.Start, win.Length())}
	n, err := io.CopyBuffer(sink, src, *bp)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrStreamIO, err)
	}
	if n != win.Length() {
		return n, fmt.Errorf("%w: short read %d of %d bytes: %v", ErrStreamIO, n, win.Length(), io.ErrUnexpectedEOF)
	}
	return n, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
