package server

import (
	"github.com/ValentinKolb/mKV/lib/snapshot"
	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/ValentinKolb/mKV/rpc/codec"
	"github.com/ValentinKolb/mKV/rpc/common"
)

// commandHandler describes how one command is validated and executed
type commandHandler struct {
	// arity reports whether n arguments are valid for the command
	arity func(n int) bool
	// handle executes the command, args already passed the arity check
	handle func(args []string) common.Reply
}

func exactly(want int) func(int) bool {
	return func(n int) bool { return n == want }
}

// Dispatcher maps parsed commands to store operations and builds the replies.
// It is safe for concurrent use as long as the store is.
type Dispatcher struct {
	store        store.IStore
	snapshotFile string
	metrics      *serverMetrics
	handlers     map[common.CommandType]commandHandler
}

// NewDispatcher creates a dispatcher working on the given store.
// snapshotFile is the path written by SAVE.
func NewDispatcher(s store.IStore, snapshotFile string) *Dispatcher {
	d := &Dispatcher{
		store:        s,
		snapshotFile: snapshotFile,
	}

	d.handlers = map[common.CommandType]commandHandler{
		common.CmdTPing:   {arity: func(n int) bool { return n <= 1 }, handle: d.ping},
		common.CmdTSet:    {arity: exactly(2), handle: d.set},
		common.CmdTGet:    {arity: exactly(1), handle: d.get},
		common.CmdTDel:    {arity: exactly(1), handle: d.del},
		common.CmdTGetAll: {arity: exactly(0), handle: d.getAll},
		common.CmdTSave:   {arity: exactly(0), handle: d.save},
		common.CmdTDBSize: {arity: exactly(0), handle: d.dbSize},
		common.CmdTQuit:   {arity: exactly(0), handle: d.quit},
	}

	return d
}

// --------------------------------------------------------------------------
// Dispatching
// --------------------------------------------------------------------------

// HandleLine parses a single command line and dispatches it
func (d *Dispatcher) HandleLine(line string) common.Reply {
	cmd, ok := codec.ParseCommandLine(line)
	if !ok {
		d.countError()
		return common.NewErrorReply(common.MsgEmptyCommand)
	}
	return d.Dispatch(cmd)
}

// Dispatch executes a parsed command against the store
func (d *Dispatcher) Dispatch(cmd common.Command) common.Reply {
	t := cmd.Type()
	if d.metrics != nil {
		d.metrics.incCommand(t)
	}

	h, ok := d.handlers[t]
	if !ok || !h.arity(len(cmd.Args)) {
		Logger.Debugf("Rejected command %s with %d args", cmd.Name, len(cmd.Args))
		d.countError()
		return common.NewErrorReply(common.MsgWrongCommand)
	}

	reply := h.handle(cmd.Args)
	if reply.ReplyType == common.ReplyTError {
		d.countError()
	}
	return reply
}

func (d *Dispatcher) countError() {
	if d.metrics != nil {
		d.metrics.commandErrors.Inc()
	}
}

// --------------------------------------------------------------------------
// Command Handlers
// --------------------------------------------------------------------------

func (d *Dispatcher) ping(args []string) common.Reply {
	if len(args) == 1 {
		return common.NewBulkReply(args[0])
	}
	return common.NewStatusReply("PONG")
}

func (d *Dispatcher) set(args []string) common.Reply {
	d.store.Set(args[0], args[1])
	return common.NewOKReply()
}

func (d *Dispatcher) get(args []string) common.Reply {
	val, ok := d.store.Get(args[0])
	if !ok {
		return common.NewNullReply()
	}
	return common.NewBulkReply(val)
}

func (d *Dispatcher) del(args []string) common.Reply {
	if d.store.Delete(args[0]) {
		return common.NewIntegerReply(1)
	}
	return common.NewIntegerReply(0)
}

func (d *Dispatcher) getAll(_ []string) common.Reply {
	entries := d.store.Snapshot()
	if len(entries) == 0 {
		return common.NewNullReply()
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, codec.FormatPair(e.Key, e.Value))
	}
	return common.NewLinesReply(lines)
}

func (d *Dispatcher) save(_ []string) common.Reply {
	if err := snapshot.SaveFile(d.snapshotFile, d.store); err != nil {
		Logger.Errorf("SAVE failed: %v", err)
		if d.metrics != nil {
			d.metrics.snapshotSaveFails.Inc()
		}
		return common.NewErrorReply(common.MsgSaveFailed)
	}

	if d.metrics != nil {
		d.metrics.snapshotSaves.Inc()
	}
	return common.NewOKReply()
}

func (d *Dispatcher) dbSize(_ []string) common.Reply {
	return common.NewIntegerReply(int64(d.store.Len()))
}

func (d *Dispatcher) quit(_ []string) common.Reply {
	reply := common.NewOKReply()
	reply.Close = true
	return reply
}
