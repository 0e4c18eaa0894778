// Package server implements a loopback-only TCP listener that accepts
// one-shot connections, reads a single length-unprefixed JSON request,
// dispatches it through the command router, and writes a single JSON
// response.
package server

import (
	"bufio"
	"fmt"
)

// MaxRequestBytes is the request-size cap enforced while framing.
const MaxRequestBytes = 10 * 1024 * 1024

// readBalancedJSON reads from r byte-by-byte until the accumulated buffer
// holds exactly one complete top-level JSON value, tracking brace and
// bracket depth with string-state awareness so that braces inside string
// literals don't confuse the balance count. It does not itself parse the
// JSON; handleConn's json.Unmarshal into a protocol.Request does that
// afterward.
//
// It returns the underlying read error (typically io.EOF) if the stream
// ends before a value is balanced, and an error wrapping errRequestTooLarge
// if MaxRequestBytes is exceeded before completion.
func readBalancedJSON(r *bufio.Reader) ([]byte, error) {
	var buf []byte
	depth := 0
	started := false
	inString := false
	escaped := false

	for {
		b, err := r.ReadByte()
		if err != nil {
			if started && depth == 0 {
				// A bare scalar (e.g. just `true` or a number) with no
				// braces/brackets, terminated by EOF, is still valid JSON.
				return buf, nil
			}
			return buf, err
		}
		buf = append(buf, b)
		if len(buf) > MaxRequestBytes {
			return nil, fmt.Errorf("%w: request exceeds %d bytes", errRequestTooLarge, MaxRequestBytes)
		}

		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
			started = true
		case '{', '[':
			depth++
			started = true
		case '}', ']':
			depth--
			started = true
			if depth == 0 {
				return buf, nil
			}
		case ' ', '\t', '\n', '\r':
			// whitespace between/around tokens; ignore
		default:
			started = true
			if depth == 0 {
				// A bare scalar value (number/true/false/null) with no
				// enclosing braces: keep reading until whitespace, a brace,
				// or EOF signals the end of the token.
				return readBareScalar(r, buf)
			}
		}
	}
}

// readBareScalar finishes reading a top-level scalar JSON value (a bare
// number, true, false, or null with no object/array wrapper) that began
// with the byte(s) already in buf.
func readBareScalar(r *bufio.Reader, buf []byte) ([]byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return buf, nil // EOF ends the bare scalar; treat as complete
		}
		switch b {
		case ' ', '\t', '\n', '\r', '{', '[':
			_ = r.UnreadByte()
			return buf, nil
		default:
			buf = append(buf, b)
			if len(buf) > MaxRequestBytes {
				return nil, fmt.Errorf("%w: request exceeds %d bytes", errRequestTooLarge, MaxRequestBytes)
			}
		}
	}
}
