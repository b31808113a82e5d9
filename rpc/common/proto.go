package common

import (
	"strings"
)

// --------------------------------------------------------------------------
// Command Structure
// --------------------------------------------------------------------------

// Command is one parsed command line.
// Name is always uppercase, Args are passed through unmodified.
type Command struct {
	Name string
	Args []string
}

// Type returns the CommandType for the command name.
func (c Command) Type() CommandType {
	return ParseCommandType(c.Name)
}

// --------------------------------------------------------------------------
// Command Types
// --------------------------------------------------------------------------

// CommandType identifies a supported command.
type CommandType int

const (
	CmdTUnknown CommandType = iota
	CmdTPing                // Liveness check, optionally echoing a message
	CmdTSet                 // Set a key-value pair
	CmdTGet                 // Get a value by key
	CmdTDel                 // Delete a key-value pair
	CmdTGetAll              // List all key-value pairs
	CmdTSave                // Write a snapshot to disk
	CmdTDBSize              // Number of keys in the store
	CmdTQuit                // Close the connection
)

// ParseCommandType maps a command name (any case) to its CommandType.
func ParseCommandType(name string) CommandType {
	switch strings.ToUpper(name) {
	case "PING":
		return CmdTPing
	case "SET":
		return CmdTSet
	case "GET":
		return CmdTGet
	case "DEL":
		return CmdTDel
	case "GETALL":
		return CmdTGetAll
	case "SAVE":
		return CmdTSave
	case "DBSIZE":
		return CmdTDBSize
	case "QUIT":
		return CmdTQuit
	default:
		return CmdTUnknown
	}
}

// String returns the wire name of the command type.
func (t CommandType) String() string {
	switch t {
	case CmdTPing:
		return "PING"
	case CmdTSet:
		return "SET"
	case CmdTGet:
		return "GET"
	case CmdTDel:
		return "DEL"
	case CmdTGetAll:
		return "GETALL"
	case CmdTSave:
		return "SAVE"
	case CmdTDBSize:
		return "DBSIZE"
	case CmdTQuit:
		return "QUIT"
	default:
		return "UNKNOWN"
	}
}

// --------------------------------------------------------------------------
// Reply Structure
// --------------------------------------------------------------------------

// Reply is the semantic result of a dispatched command.
// Which fields are used depends on the type of reply.
type Reply struct {
	// Type of reply
	ReplyType ReplyType

	Str   string   // Used for: Status, Bulk, Error
	Int   int64    // Used for: Integer
	Lines []string // Used for: Lines

	// Close signals the connection handler to close the connection after the reply was written
	Close bool
}

// --------------------------------------------------------------------------
// Reply Factory Functions
// --------------------------------------------------------------------------

const (
	// MsgWrongCommand is the generic error for unknown commands and wrong argument counts
	MsgWrongCommand = "Wrong command or wrong number of arguments"
	// MsgEmptyCommand is returned for lines that contain no token
	MsgEmptyCommand = "Empty command"
	// MsgSaveFailed is returned when SAVE could not write the snapshot
	MsgSaveFailed = "Failed to save snapshot"
)

// NewOKReply creates the +OK reply
func NewOKReply() Reply {
	return Reply{ReplyType: ReplyTStatus, Str: "OK"}
}

// NewStatusReply creates a simple status reply (+s)
func NewStatusReply(s string) Reply {
	return Reply{ReplyType: ReplyTStatus, Str: s}
}

// NewBulkReply creates a length prefixed bulk reply
func NewBulkReply(s string) Reply {
	return Reply{ReplyType: ReplyTBulk, Str: s}
}

// NewNullReply creates the null bulk reply ($-1)
func NewNullReply() Reply {
	return Reply{ReplyType: ReplyTNull}
}

// NewIntegerReply creates an integer reply (:i)
func NewIntegerReply(i int64) Reply {
	return Reply{ReplyType: ReplyTInteger, Int: i}
}

// NewErrorReply creates an error reply (-ERR m)
func NewErrorReply(msg string) Reply {
	return Reply{ReplyType: ReplyTError, Str: msg}
}

// NewLinesReply creates a reply of raw lines, each written as is
func NewLinesReply(lines []string) Reply {
	return Reply{ReplyType: ReplyTLines, Lines: lines}
}

// --------------------------------------------------------------------------
// Reply Types
// --------------------------------------------------------------------------

// ReplyType identifies the wire form of a reply.
type ReplyType int

const (
	ReplyTStatus  ReplyType = iota // +s
	ReplyTBulk                     // $n CRLF s
	ReplyTNull                     // $-1
	ReplyTInteger                  // :i
	ReplyTError                    // -ERR m
	ReplyTLines                    // raw lines
)

func (t ReplyType) String() string {
	switch t {
	case ReplyTStatus:
		return "status"
	case ReplyTBulk:
		return "bulk"
	case ReplyTNull:
		return "null"
	case ReplyTInteger:
		return "integer"
	case ReplyTError:
		return "error"
	case ReplyTLines:
		return "lines"
	default:
		return "unknown"
	}
}
