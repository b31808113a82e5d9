package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ValentinKolb/mKV/rpc/common"
)

// ErrProtocol is returned when a reply line cannot be parsed
var ErrProtocol = errors.New("protocol error")

// --------------------------------------------------------------------------
// Reply Decoding (client side)
// --------------------------------------------------------------------------

// ReadLine reads one line and strips the trailing "\r\n" or "\n"
func ReadLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		// a partial line without terminator is not a complete reply
		if err == io.EOF && line != "" {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// ReadReply reads a single self delimited reply (status, error, integer, bulk or null).
// Raw line replies such as GETALL output must be read with ReadLine.
func ReadReply(r *bufio.Reader) (common.Reply, error) {
	line, err := ReadLine(r)
	if err != nil {
		return common.Reply{}, err
	}
	return parseReplyLine(r, line)
}

func parseReplyLine(r *bufio.Reader, line string) (common.Reply, error) {
	if line == "" {
		return common.Reply{}, fmt.Errorf("%w: empty reply line", ErrProtocol)
	}

	switch line[0] {
	case '+':
		return common.NewStatusReply(line[1:]), nil

	case '-':
		msg := strings.TrimPrefix(line[1:], "ERR ")
		return common.NewErrorReply(msg), nil

	case ':':
		i, err := strconv.ParseInt(line[1:], 10, 64)
		if err != nil {
			return common.Reply{}, fmt.Errorf("%w: invalid integer reply %q", ErrProtocol, line)
		}
		return common.NewIntegerReply(i), nil

	case '$':
		n, err := strconv.Atoi(line[1:])
		if err != nil || n < -1 {
			return common.Reply{}, fmt.Errorf("%w: invalid bulk length %q", ErrProtocol, line)
		}
		if n == -1 {
			return common.NewNullReply(), nil
		}

		// payload plus CRLF
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return common.Reply{}, fmt.Errorf("failed to read bulk payload: %v", err)
		}
		if buf[n] != '\r' || buf[n+1] != '\n' {
			return common.Reply{}, fmt.Errorf("%w: bulk payload not terminated by CRLF", ErrProtocol)
		}
		return common.NewBulkReply(string(buf[:n])), nil

	default:
		return common.Reply{}, fmt.Errorf("%w: unexpected reply %q", ErrProtocol, line)
	}
}
