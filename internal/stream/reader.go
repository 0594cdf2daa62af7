package stream

import (
	"bufio"
	"io"
	"strings"
)

const maxLineSize = 1024 * 1024

// reads server-sent events from r and calls emit for every known named
// event until r is exhausted; emit returning false stops reading
func Decode(r io.Reader, emit func(Event) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var name string
	var data []string

	dispatch := func() bool {
		defer func() {
			name = ""
			data = data[:0]
		}()

		if name == "" && len(data) == 0 {
			return true
		}

		ev, ok := ParseEvent(name, strings.Join(data, "\n"))
		if !ok {
			return true
		}

		return emit(ev)
	}

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if line == "" {
			if !dispatch() {
				return nil
			}

			continue
		}

		// comment lines are keep-alives
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	// a final event without trailing blank line still counts
	dispatch()

	return nil
}
