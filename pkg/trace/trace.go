package trace

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/fxamacker/cbor/v2"

	"wasmexec/pkg/ast"
	"wasmexec/pkg/color"
	"wasmexec/pkg/interpreter"
)

// Event is one executed instruction as seen by a trace hook.
type Event struct {
	Depth  int    `cbor:"1,keyasint"`
	PC     int    `cbor:"2,keyasint"`
	Opcode string `cbor:"3,keyasint"`
	Text   string `cbor:"4,keyasint,omitempty"`
}

func (e Event) String() string {
	return fmt.Sprintf("%d:%d %s", e.Depth, e.PC, e.Text)
}

func newEvent(depth, pc int, in ast.Instruction) Event {
	return Event{Depth: depth, PC: pc, Opcode: in.Opcode(), Text: in.String()}
}

// Recorder keeps every event it observes, in order.
type Recorder struct {
	events []Event
}

// Hook returns the trace function feeding the recorder.
func (r *Recorder) Hook() interpreter.TraceFunc {
	return func(depth, pc int, in ast.Instruction) {
		r.events = append(r.events, newEvent(depth, pc, in))
	}
}

func (r *Recorder) Events() []Event {
	return r.events
}

func (r *Recorder) Reset() {
	r.events = r.events[:0]
}

// Encode writes the recorded events to w as a CBOR array.
func (r *Recorder) Encode(w io.Writer) error {
	events := r.events
	if events == nil {
		events = []Event{}
	}
	return cbor.NewEncoder(w).Encode(events)
}

// Decode reads events written by Recorder.Encode.
func Decode(rd io.Reader) ([]Event, error) {
	var events []Event
	if err := cbor.NewDecoder(rd).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}
	return events, nil
}

// Tee fans every event out to each non-nil hook. It returns nil when there
// is nothing to call.
func Tee(hooks ...interpreter.TraceFunc) interpreter.TraceFunc {
	var live []interpreter.TraceFunc
	for _, h := range hooks {
		if h != nil {
			live = append(live, h)
		}
	}

	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}

	return func(depth, pc int, in ast.Instruction) {
		for _, h := range live {
			h(depth, pc, in)
		}
	}
}

// LogHook logs each event at debug level.
func LogHook(l *log.Logger) interpreter.TraceFunc {
	return func(depth, pc int, in ast.Instruction) {
		l.Debug("exec", "depth", depth, "pc", pc, "instr", in.String())
	}
}

// PrintHook writes one colored line per event, indented by depth.
func PrintHook(w io.Writer) interpreter.TraceFunc {
	return func(depth, pc int, in ast.Instruction) {
		fmt.Fprintf(w, "%*s%s %s\n", depth*2, "",
			color.GrayText(fmt.Sprintf("%d:%d", depth, pc)),
			color.OpcodeText(in.String()))
	}
}
