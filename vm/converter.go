package vm

// FindConverterChain performs the breadth-first search spec.md §4.5
// describes for CALL_FORMATTER: the shortest sequence of registered
// converters turning a Note of format `from` into format `to`. Each edge
// in the search is one (from,to) converter registration; ties are broken
// by registration order within a given (from,to) pair (the first
// registered converter for an edge is used).
func (r *Runtime) FindConverterChain(from, to string) ([]*Value, bool) {
	if from == to {
		return nil, true
	}
	type frontierNode struct {
		name string
		path []*Value
	}
	visited := map[string]bool{from: true}
	queue := []frontierNode{{name: from}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for key, fns := range r.converters {
			if key.from != cur.name || len(fns) == 0 || visited[key.to] {
				continue
			}
			visited[key.to] = true
			path := make([]*Value, len(cur.path), len(cur.path)+1)
			copy(path, cur.path)
			path = append(path, fns[0])
			if key.to == to {
				return path, true
			}
			queue = append(queue, frontierNode{name: key.to, path: path})
		}
	}
	return nil, false
}

// RunFormatter converts note through the converter chain from its own
// format to targetFormat, invoking each link synchronously via
// i.CallValue (spec.md §4.5 "each function takes the intermediate
// representation and returns the next one").
func (i *Interpreter) RunFormatter(note *Value, targetFormat string) (*Value, error) {
	nd := note.Data.(*noteData)
	chain, ok := i.rt.FindConverterChain(nd.Format, targetFormat)
	if !ok {
		return nil, &TypeMismatchError{Message: "no converter chain from " + nd.Format + " to " + targetFormat}
	}
	cur := note
	for _, fn := range chain {
		result, err := i.CallValue(fn, []*Value{cur}, nil)
		if err != nil {
			return nil, err
		}
		cur = result
	}
	return cur, nil
}
