package cmdshared

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"
)

// Progress reports how many mods have been checked
type Progress interface {
	Increment()
	Wait()
}

type noProgress struct{}

func (noProgress) Increment() {}
func (noProgress) Wait()      {}

type barProgress struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

func (b barProgress) Increment() {
	b.bar.Increment()
}

func (b barProgress) Wait() {
	b.p.Wait()
}

// isTerminal decides whether a progress bar is drawn on w
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// NewProgress shows a progress bar on w when it is a terminal, and does nothing otherwise
func NewProgress(ctx context.Context, w io.Writer, name string, total int) Progress {
	if total == 0 || !isTerminal(w) {
		return noProgress{}
	}
	// The context stops the bar from blocking Wait when a run is cancelled before completing
	p := mpb.NewWithContext(ctx, mpb.WithOutput(w))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(decor.Name(name+" ")),
		mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
		mpb.BarRemoveOnComplete(),
	)
	return barProgress{p, bar}
}
