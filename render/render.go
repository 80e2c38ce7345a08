// Package render draws a yard as plain text.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/yardsim/eventlog"
	"github.com/sarchlab/yardsim/hooking"
	"github.com/sarchlab/yardsim/verify"
	"github.com/sarchlab/yardsim/yard"
)

// DefaultHeight is the number of stack levels drawn by Render.
const DefaultHeight = 15

// A Renderer draws yards. Containers above Height levels are not drawn.
type Renderer struct {
	Height int
}

// Render draws the yard with the default height.
func Render(w io.Writer, v yard.View, caption string) error {
	return Renderer{Height: DefaultHeight}.Render(w, v, caption)
}

// Render writes the caption, the stacks from top to bottom, the floor, and
// the cash.
func (r Renderer) Render(w io.Writer, v yard.View, caption string) error {
	rows := r.rows(v)

	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, caption)

	for h := len(rows) - 1; h >= 0; h-- {
		fmt.Fprintln(bw, strings.TrimRight(string(rows[h]), " "))
	}

	fmt.Fprintln(bw, strings.Repeat("--", v.Width()))
	fmt.Fprintf(bw, "$: %d\n", v.Cash())

	return bw.Flush()
}

func (r Renderer) rows(v yard.View) [][]byte {
	height := 0
	for p := 0; p < v.Width(); p++ {
		height = max(height, v.Height(p))
	}

	height = max(min(height, r.Height), 0)

	rows := make([][]byte, height)
	for h := range rows {
		rows[h] = []byte(strings.Repeat(" ", 2*v.Width()))
	}

	for _, c := range v.Containers() {
		loc, ok := v.Location(c)
		if !ok || loc.Height >= height {
			continue
		}

		copy(rows[loc.Height][2*loc.Column:], label(c))
	}

	return rows
}

// label is the last two digits of the identifier, padded to the footprint of
// the container. The sign is dropped.
func label(c yard.Container) string {
	width := 2 * c.Size

	id := c.ID % 100
	if id < 0 {
		id = -id
	}

	text := strconv.Itoa(id)
	if len(text) > width {
		text = text[:width]
	}

	return text + strings.Repeat(".", width-len(text))
}

// A FrameWriter is a hook that draws the yard after every replayed record.
type FrameWriter struct {
	renderer Renderer
	w        io.Writer
	name     string
	err      error
}

// NewFrameWriter creates a FrameWriter that draws into w.
func NewFrameWriter(w io.Writer, height int) *FrameWriter {
	return &FrameWriter{
		renderer: Renderer{Height: height},
		w:        w,
	}
}

// Func draws a frame.
func (f *FrameWriter) Func(ctx hooking.HookCtx) {
	if ctx.Pos != verify.HookPosReplayStep || f.err != nil {
		return
	}

	r, ok := ctx.Item.(eventlog.Record)
	if !ok {
		return
	}

	if r.Kind == eventlog.KindStart {
		f.name = r.Name
	}

	v, ok := ctx.Detail.(yard.View)
	if !ok {
		return
	}

	f.err = f.renderer.Render(f.w, v, fmt.Sprintf("%s t: %d", f.name, r.Time))
	if f.err == nil {
		_, f.err = fmt.Fprintln(f.w)
	}
}

// Err returns the first write error.
func (f *FrameWriter) Err() error {
	return f.err
}
