package client

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/ValentinKolb/mKV/rpc/codec"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/transport"
	"github.com/ValentinKolb/mKV/rpc/transport/tcp"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")

	// ErrServer wraps every -ERR reply of the server
	ErrServer = errors.New("server error")
	// ErrInvalidArgument is returned for keys or values the line protocol cannot carry
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnexpectedReply is returned when the reply type does not match the command
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// Client is a connection to a single mKV server.
// All methods are safe for concurrent use, requests are serialized on the connection.
type Client struct {
	config    common.ClientConfig
	transport transport.IClientTransport
}

// NewClient connects the transport and returns a client using it
func NewClient(config common.ClientConfig, transport transport.IClientTransport) (*Client, error) {
	if err := transport.Connect(config); err != nil {
		return nil, err
	}
	return &Client{config: config, transport: transport}, nil
}

// Dial connects to endpoint over TCP with default settings
func Dial(endpoint string) (*Client, error) {
	return NewClient(common.ClientConfig{
		Endpoint:      endpoint,
		TimeoutSecond: 5,
		RetryCount:    3,
		TCPConf:       common.TCPConf{TCPNoDelay: true},
	}, tcp.NewTCPClientTransport())
}

// --------------------------------------------------------------------------
// Commands
// --------------------------------------------------------------------------

// Ping checks that the server is alive
func (c *Client) Ping() error {
	reply, err := c.invoke("PING")
	if err != nil {
		return err
	}
	if reply.ReplyType != common.ReplyTStatus || reply.Str != "PONG" {
		return unexpected("PING", reply)
	}
	return nil
}

// Echo sends PING msg and returns the echoed message
func (c *Client) Echo(msg string) (string, error) {
	if err := validateToken("message", msg); err != nil {
		return "", err
	}
	reply, err := c.invoke("PING " + msg)
	if err != nil {
		return "", err
	}
	if reply.ReplyType != common.ReplyTBulk {
		return "", unexpected("PING", reply)
	}
	return reply.Str, nil
}

// Set stores value under key
func (c *Client) Set(key, value string) error {
	if err := validateToken("key", key); err != nil {
		return err
	}
	if err := validateToken("value", value); err != nil {
		return err
	}
	reply, err := c.invoke("SET " + key + " " + value)
	if err != nil {
		return err
	}
	if reply.ReplyType != common.ReplyTStatus {
		return unexpected("SET", reply)
	}
	return nil
}

// Get returns the value of key and whether it exists
func (c *Client) Get(key string) (string, bool, error) {
	if err := validateToken("key", key); err != nil {
		return "", false, err
	}
	reply, err := c.invoke("GET " + key)
	if err != nil {
		return "", false, err
	}
	switch reply.ReplyType {
	case common.ReplyTBulk:
		return reply.Str, true, nil
	case common.ReplyTNull:
		return "", false, nil
	default:
		return "", false, unexpected("GET", reply)
	}
}

// Delete removes key and reports whether it existed
func (c *Client) Delete(key string) (bool, error) {
	if err := validateToken("key", key); err != nil {
		return false, err
	}
	reply, err := c.invoke("DEL " + key)
	if err != nil {
		return false, err
	}
	if reply.ReplyType != common.ReplyTInteger {
		return false, unexpected("DEL", reply)
	}
	return reply.Int == 1, nil
}

// GetAll returns all pairs of the store, in no particular order.
// The listing has no terminator on the wire, so a PING is pipelined behind
// GETALL and lines are read until its +PONG arrives.
func (c *Client) GetAll() ([]store.Entry, error) {
	var entries []store.Entry
	var serverErr error

	err := c.transport.Do([]byte("GETALL\r\nPING\r\n"), func(r *bufio.Reader) error {
		for {
			line, err := codec.ReadLine(r)
			if err != nil {
				return fmt.Errorf("failed to read GETALL reply: %w", err)
			}

			// pairs first: keys may start with '-', '+' or '$'
			if key, value, ok := codec.ParsePair(line); ok {
				entries = append(entries, store.Entry{Key: key, Value: value})
				continue
			}

			switch {
			case line == "+PONG":
				return nil
			case line == "$-1":
				// empty store
			case strings.HasPrefix(line, "-"):
				serverErr = fmt.Errorf("%w: %s", ErrServer, strings.TrimPrefix(line[1:], "ERR "))
			default:
				return fmt.Errorf("%w: malformed GETALL line %q", codec.ErrProtocol, line)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if serverErr != nil {
		return nil, serverErr
	}
	return entries, nil
}

// Save asks the server to write its snapshot
func (c *Client) Save() error {
	reply, err := c.invoke("SAVE")
	if err != nil {
		return err
	}
	if reply.ReplyType != common.ReplyTStatus {
		return unexpected("SAVE", reply)
	}
	return nil
}

// DBSize returns the number of keys on the server
func (c *Client) DBSize() (int, error) {
	reply, err := c.invoke("DBSIZE")
	if err != nil {
		return 0, err
	}
	if reply.ReplyType != common.ReplyTInteger {
		return 0, unexpected("DBSIZE", reply)
	}
	return int(reply.Int), nil
}

// Quit ends the session politely and closes the connection
func (c *Client) Quit() error {
	_, err := c.invoke("QUIT")
	if closeErr := c.transport.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Close closes the connection without sending QUIT
func (c *Client) Close() error {
	return c.transport.Close()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// invoke sends one command line and reads a single reply.
// -ERR replies are returned as errors wrapping ErrServer.
func (c *Client) invoke(line string) (common.Reply, error) {
	var reply common.Reply

	err := c.transport.Do([]byte(line+"\r\n"), func(r *bufio.Reader) error {
		var err error
		reply, err = codec.ReadReply(r)
		return err
	})
	if err != nil {
		Logger.Debugf("Request %q failed: %v", line, err)
		return common.Reply{}, err
	}

	if reply.ReplyType == common.ReplyTError {
		return common.Reply{}, fmt.Errorf("%w: %s", ErrServer, reply.Str)
	}
	return reply, nil
}

// validateToken rejects values that would be split or truncated by the line protocol
func validateToken(name, s string) error {
	if s == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidArgument, name)
	}
	if strings.ContainsAny(s, " \r\n") {
		return fmt.Errorf("%w: %s must not contain spaces or line breaks", ErrInvalidArgument, name)
	}
	return nil
}

func unexpected(cmd string, reply common.Reply) error {
	return fmt.Errorf("%w: %s returned a %s reply", ErrUnexpectedReply, cmd, reply.ReplyType)
}
