package codec

import (
	"strconv"
	"strings"

	"github.com/ValentinKolb/mKV/rpc/common"
)

const crlf = "\r\n"

// --------------------------------------------------------------------------
// Request Parsing
// --------------------------------------------------------------------------

// ParseCommandLine splits a single command line (without the line terminator)
// into a command. Tokens are separated by single spaces, empty tokens are
// dropped. ok is false if the line contains no token at all.
func ParseCommandLine(line string) (cmd common.Command, ok bool) {
	tokens := Tokenize(line)
	if len(tokens) == 0 {
		return common.Command{}, false
	}
	return common.Command{
		Name: strings.ToUpper(tokens[0]),
		Args: tokens[1:],
	}, true
}

// Tokenize splits a line on ' ' and drops empty tokens.
// Tabs and other whitespace are part of a token.
func Tokenize(line string) []string {
	parts := strings.Split(line, " ")
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// --------------------------------------------------------------------------
// Reply Encoding
// --------------------------------------------------------------------------

// EncodeReply returns the wire bytes of a reply
func EncodeReply(r common.Reply) []byte {
	return AppendReply(nil, r)
}

// AppendReply appends the wire form of r to buf and returns the extended buffer
func AppendReply(buf []byte, r common.Reply) []byte {
	switch r.ReplyType {
	case common.ReplyTStatus:
		buf = append(buf, '+')
		buf = append(buf, r.Str...)
		buf = append(buf, crlf...)
	case common.ReplyTBulk:
		buf = append(buf, '$')
		buf = strconv.AppendInt(buf, int64(len(r.Str)), 10)
		buf = append(buf, crlf...)
		buf = append(buf, r.Str...)
		buf = append(buf, crlf...)
	case common.ReplyTNull:
		buf = append(buf, "$-1"+crlf...)
	case common.ReplyTInteger:
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, r.Int, 10)
		buf = append(buf, crlf...)
	case common.ReplyTError:
		buf = append(buf, "-ERR "...)
		buf = append(buf, r.Str...)
		buf = append(buf, crlf...)
	case common.ReplyTLines:
		for _, l := range r.Lines {
			buf = append(buf, l...)
			buf = append(buf, crlf...)
		}
	}
	return buf
}

// --------------------------------------------------------------------------
// GETALL line format
// --------------------------------------------------------------------------

// PairSeparator separates key and value in a GETALL line
const PairSeparator = " : "

// FormatPair formats one GETALL line (without terminator)
func FormatPair(key, value string) string {
	return key + PairSeparator + value
}

// ParsePair splits a GETALL line at the first separator.
// Keys never contain spaces, so the first separator is always the right one.
func ParsePair(line string) (key, value string, ok bool) {
	return strings.Cut(line, PairSeparator)
}
