package vm

import "strings"

// FormatTraceback renders the process-wide "unwound funs" list an
// uncaught RAISE accumulated (spec.md §4.5 "print the message and a stack
// trace, tracing via the unwound funs list") into the frame-per-line form
// a terminal REPL or CLI prints before exiting.
func (r *Runtime) FormatTraceback() string {
	if len(r.unwoundFuns) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Traceback (most recent call last):\n")
	for idx := len(r.unwoundFuns) - 1; idx >= 0; idx-- {
		fn := r.unwoundFuns[idx]
		b.WriteString("  in ")
		if fn != nil && fn.Name != "" {
			b.WriteString(fn.Name)
		} else {
			b.WriteString("<anonymous>")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ClearTraceback resets the unwound-funs list so a later uncaught raise
// doesn't print stale frames. The interpreter itself never calls it:
// entries left by a caught exception stay in the list until a caller
// resets it.
func (r *Runtime) ClearTraceback() {
	r.unwoundFuns = r.unwoundFuns[:0]
}

// FormatException renders an exception Value for the uncaught-exception
// report: its class name and, if present, its "message" attribute.
func FormatException(i *Interpreter, exc *Value) string {
	name := exc.Type.Name
	if msg, ok := exc.GetAttr("message"); ok {
		s, err := i.stringOf(msg)
		if err == nil {
			return name + ": " + s
		}
	}
	return name
}
