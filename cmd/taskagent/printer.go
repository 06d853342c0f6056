package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/martinemde/taskagent/agent"
)

// printer renders agent events on the console, one coloured header per
// event kind.
type printer struct {
	mu sync.Mutex
	w  io.Writer

	red, blue, green, yellow, magenta *color.Color
}

func newPrinter(w io.Writer, colored bool) *printer {
	p := &printer{
		w:       w,
		red:     color.New(color.FgRed, color.Bold),
		blue:    color.New(color.FgBlue, color.Bold),
		green:   color.New(color.FgGreen, color.Bold),
		yellow:  color.New(color.FgYellow, color.Bold),
		magenta: color.New(color.FgMagenta, color.Bold),
	}
	for _, c := range []*color.Color{p.red, p.blue, p.green, p.yellow, p.magenta} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Output implements agent.OutputFunc.
func (p *printer) Output(text string, kind agent.EventKind) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch kind {
	case agent.EventCostWarning:
		fmt.Fprintln(p.w, p.red.Sprintf("*****%s*****", text))
	case agent.EventObjective:
		p.section(p.blue, "OBJECTIVE", text)
	case agent.EventInitialTask:
		fmt.Fprintln(p.w, "\n"+p.yellow.Sprint("Initial task: "+text))
	case agent.EventTaskList:
		p.section(p.magenta, "TASK LIST", text)
	case agent.EventNextTask:
		p.section(p.green, "NEXT TASK", text)
	case agent.EventTaskResult:
		p.section(p.yellow, "TASK RESULT", text)
	case agent.EventWarning:
		fmt.Fprintln(p.w, p.yellow.Sprint("warning: ")+text)
	case agent.EventError:
		fmt.Fprintln(p.w, p.red.Sprint("error: ")+text)
	default:
		fmt.Fprintln(p.w, text)
	}
}

func (p *printer) section(c *color.Color, title, text string) {
	fmt.Fprintf(p.w, "\n%s\n\n%s\n", c.Sprintf("*****%s*****", title), text)
}
