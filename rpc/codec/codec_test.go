package codec

import (
	"bufio"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/ValentinKolb/mKV/rpc/common"
)

// TestParseCommandLine checks tokenization and name normalization
func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
		name string
		args []string
	}{
		{"PING", true, "PING", []string{}},
		{"ping", true, "PING", []string{}},
		{"set name redis", true, "SET", []string{"name", "redis"}},
		{"SET  a   b", true, "SET", []string{"a", "b"}},
		{"  GET key  ", true, "GET", []string{"key"}},
		{"GET Key", true, "GET", []string{"Key"}},
		{"SET k\tv", true, "SET", []string{"k\tv"}},
		{"", false, "", nil},
		{"     ", false, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, ok := ParseCommandLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if !ok {
				return
			}
			if cmd.Name != tt.name {
				t.Errorf("Expected name %q, got %q", tt.name, cmd.Name)
			}
			if len(cmd.Args) != len(tt.args) {
				t.Fatalf("Expected %d args, got %d (%q)", len(tt.args), len(cmd.Args), cmd.Args)
			}
			for i := range tt.args {
				if cmd.Args[i] != tt.args[i] {
					t.Errorf("Arg %d: expected %q, got %q", i, tt.args[i], cmd.Args[i])
				}
			}
		})
	}
}

// TestEncodeReply checks the exact wire bytes of every reply type
func TestEncodeReply(t *testing.T) {
	tests := []struct {
		name     string
		reply    common.Reply
		expected string
	}{
		{"OK", common.NewOKReply(), "+OK\r\n"},
		{"Pong", common.NewStatusReply("PONG"), "+PONG\r\n"},
		{"Bulk", common.NewBulkReply("redis"), "$5\r\nredis\r\n"},
		{"EmptyBulk", common.NewBulkReply(""), "$0\r\n\r\n"},
		{"Null", common.NewNullReply(), "$-1\r\n"},
		{"IntegerOne", common.NewIntegerReply(1), ":1\r\n"},
		{"IntegerZero", common.NewIntegerReply(0), ":0\r\n"},
		{"Error", common.NewErrorReply(common.MsgWrongCommand), "-ERR Wrong command or wrong number of arguments\r\n"},
		{"Lines", common.NewLinesReply([]string{FormatPair("a", "1"), FormatPair("b", "2")}), "a : 1\r\nb : 2\r\n"},
		{"NoLines", common.NewLinesReply(nil), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(EncodeReply(tt.reply))
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

// TestAppendReply makes sure replies are appended, not overwritten
func TestAppendReply(t *testing.T) {
	buf := AppendReply([]byte("+PONG\r\n"), common.NewOKReply())
	if string(buf) != "+PONG\r\n+OK\r\n" {
		t.Errorf("Unexpected buffer %q", string(buf))
	}
}

// TestReadReply decodes what EncodeReply produced
func TestReadReply(t *testing.T) {
	replies := []common.Reply{
		common.NewOKReply(),
		common.NewBulkReply("redis"),
		common.NewBulkReply(""),
		common.NewBulkReply("with space"),
		common.NewNullReply(),
		common.NewIntegerReply(42),
		common.NewErrorReply(common.MsgEmptyCommand),
	}

	var wire []byte
	for _, r := range replies {
		wire = AppendReply(wire, r)
	}

	reader := bufio.NewReader(strings.NewReader(string(wire)))
	for i, expected := range replies {
		got, err := ReadReply(reader)
		if err != nil {
			t.Fatalf("Reply %d: unexpected error: %v", i, err)
		}
		if !reflect.DeepEqual(got, expected) {
			t.Errorf("Reply %d: expected %+v, got %+v", i, expected, got)
		}
	}

	if _, err := ReadReply(reader); err != io.EOF {
		t.Errorf("Expected io.EOF after last reply, got %v", err)
	}
}

// TestReadReplyInvalid covers malformed input
func TestReadReplyInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"EmptyLine", "\r\n"},
		{"UnknownPrefix", "key : value\r\n"},
		{"BadInteger", ":abc\r\n"},
		{"BadBulkLength", "$-5\r\n"},
		{"BulkNotTerminated", "$3\r\nabcXY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadReply(bufio.NewReader(strings.NewReader(tt.input)))
			if !errors.Is(err, ErrProtocol) {
				t.Errorf("Expected ErrProtocol, got %v", err)
			}
		})
	}
}

// TestReadLine checks terminator handling
func TestReadLine(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("a : 1\r\nb : 2\nincomplete"))

	for _, expected := range []string{"a : 1", "b : 2"} {
		line, err := ReadLine(reader)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if line != expected {
			t.Errorf("Expected %q, got %q", expected, line)
		}
	}

	if _, err := ReadLine(reader); err != io.ErrUnexpectedEOF {
		t.Errorf("Expected io.ErrUnexpectedEOF, got %v", err)
	}
}

// TestParsePair splits at the first separator only
func TestParsePair(t *testing.T) {
	k, v, ok := ParsePair("key : a : b")
	if !ok || k != "key" || v != "a : b" {
		t.Errorf("Unexpected result (%q, %q, %v)", k, v, ok)
	}

	if _, _, ok := ParsePair("$-1"); ok {
		t.Errorf("Expected ok=false for a line without separator")
	}
}
