package snapshot

import (
	"bufio"
	"io"
)

// --------------------------------------------------------------------------
// Encoder
// --------------------------------------------------------------------------

// Encoder writes key/value pairs in the snapshot line format:
// every pair becomes two consecutive lines, first the key, then the value.
//
// Keys and values are written verbatim. A key or value that contains a newline
// will not survive a round trip.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder creates a new buffered Encoder writing to w.
// Flush must be called after the last pair has been written.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// WritePair writes a single key/value pair.
func (e *Encoder) WritePair(key, value string) error {
	if _, err := e.w.WriteString(key); err != nil {
		return err
	}
	if err := e.w.WriteByte('\n'); err != nil {
		return err
	}
	if _, err := e.w.WriteString(value); err != nil {
		return err
	}
	return e.w.WriteByte('\n')
}

// Flush writes any buffered data to the underlying io.Writer.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

// --------------------------------------------------------------------------
// Decoder
// --------------------------------------------------------------------------

// Decoder reads key/value pairs written by an Encoder.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder creates a new Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// ReadPair returns the next complete key/value pair.
// It returns io.EOF once no complete pair is left; a trailing key without a
// value line is dropped. Any other error is returned as is.
func (d *Decoder) ReadPair() (key, value string, err error) {
	if key, err = d.readLine(); err != nil {
		return "", "", err
	}
	if value, err = d.readLine(); err != nil {
		return "", "", err
	}
	return key, value, nil
}

// readLine reads one line without its '\n' terminator.
// The last line of the stream counts as a line even if it is not terminated.
func (d *Decoder) readLine() (string, error) {
	line, err := d.r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return line, nil
		}
		return "", err
	}
	return line[:len(line)-1], nil
}
