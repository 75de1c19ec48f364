package core

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/go-jewelstore/internal/protocol"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/record"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/report"
)

const helpString = `
Available Commands:

PING
  Check if the server is alive.
  Response: PONG!

LOOKUP <kind> <product_id>
  Find a record by product id. For purchases the first order of that
  product is returned.
  Response: record as JSON | not found

INSERT catalog <product_id> <jewellery_type> <price>
INSERT purchase <order_id> <product_id> <date> <user_id>
  Add a record, keeping the file sorted by product id.
  Quote fields that contain spaces.
  Response: ok

REMOVE <kind> <product_id>
  Delete every record with that product id.
  Response: number of records removed

COUNT <kind>
  Return the number of records stored.
  Response: integer

LIST <kind>
  List all records in file order.
  Response: JSON array

REBUILD <kind>
  Regenerate the sparse index from the data file.
  Response: number of index entries

MOST-SOLD-TYPE
  Jewellery type with the most purchases.

MOST-EXPENSIVE
  Product with the highest price.

TOP-SPENDER
  User with the highest total spend.

HELP
  Show this help message.

EXIT | 0 (cli only)
  Close the client connection.

<kind> is "catalog" or "purchase".
`

func (e *Engine) commandHandler(conn net.Conn) {
	defer conn.Close()

	if !e.track(conn) {
		return
	}
	defer e.untrack(conn)

	for {
		command, err := protocol.DecodeCommand(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				e.Logger.Debug("dropping connection", zap.Stringer("remote", conn.RemoteAddr()), zap.Error(err))
			}
			return
		}

		e.handleCommand(command, conn)
	}
}

func (e *Engine) handleCommand(command *protocol.Command, conn net.Conn) {
	cmd := strings.ToLower(command.Cmd)

	switch cmd {
	case "ping":
		e.reply(conn, protocol.StatusOK, ReplyPong)
	case "lookup", "get":
		e.handleCommandLookup(conn, command)
	case "insert", "add":
		e.handleCommandInsert(conn, command)
	case "remove", "delete":
		e.handleCommandRemove(conn, command)
	case "count":
		e.handleCommandCount(conn, command)
	case "list":
		e.handleCommandList(conn, command)
	case "rebuild":
		e.handleCommandRebuild(conn, command)
	case "most-sold-type":
		res, err := e.MostSoldType()
		e.replyJSON(conn, res, err)
	case "most-expensive":
		res, err := e.MostExpensiveProduct()
		e.replyJSON(conn, res, err)
	case "top-spender":
		res, err := e.TopSpender()
		e.replyJSON(conn, res, err)
	case "help":
		e.reply(conn, protocol.StatusOK, strings.TrimSpace(helpString))
	default:
		e.reply(conn, protocol.StatusError, ReplyInvalid)
	}
}

// kindArg parses the record kind from the first argument and checks that
// exactly want arguments follow it.
func (e *Engine) kindArg(conn net.Conn, command *protocol.Command, want int) (record.Kind, bool) {
	kind, err := record.ParseKind(command.Arg(0))
	if err != nil {
		e.reply(conn, protocol.StatusError, err.Error())
		return 0, false
	}
	if want >= 0 && len(command.Args)-1 != want {
		e.reply(conn, protocol.StatusError, "usage: "+command.Cmd+" <kind>"+strings.Repeat(" <arg>", want))
		return 0, false
	}
	return kind, true
}

func (e *Engine) handleCommandLookup(conn net.Conn, command *protocol.Command) {
	kind, ok := e.kindArg(conn, command, 1)
	if !ok {
		return
	}

	rec, err := e.Lookup(kind, command.Arg(1))
	e.replyJSON(conn, rec, err)
}

func (e *Engine) handleCommandInsert(conn net.Conn, command *protocol.Command) {
	kind, ok := e.kindArg(conn, command, -1)
	if !ok {
		return
	}

	rec, err := record.FromFields(kind, command.Args[1:])
	if err != nil {
		e.reply(conn, protocol.StatusError, err.Error())
		return
	}
	if rec.Key() == "" {
		e.reply(conn, protocol.StatusError, "product id must not be empty")
		return
	}

	if err := e.Insert(rec); err != nil {
		e.replyError(conn, err)
		return
	}

	e.reply(conn, protocol.StatusOK, ReplyOK)
}

func (e *Engine) handleCommandRemove(conn net.Conn, command *protocol.Command) {
	kind, ok := e.kindArg(conn, command, 1)
	if !ok {
		return
	}

	removed, err := e.Remove(kind, command.Arg(1))
	if err != nil {
		e.replyError(conn, err)
		return
	}

	e.reply(conn, protocol.StatusOK, strconv.Itoa(removed))
}

func (e *Engine) handleCommandCount(conn net.Conn, command *protocol.Command) {
	kind, ok := e.kindArg(conn, command, 0)
	if !ok {
		return
	}

	count, err := e.Count(kind)
	if err != nil {
		e.replyError(conn, err)
		return
	}

	e.reply(conn, protocol.StatusOK, strconv.Itoa(count))
}

func (e *Engine) handleCommandList(conn net.Conn, command *protocol.Command) {
	kind, ok := e.kindArg(conn, command, 0)
	if !ok {
		return
	}

	recs, err := e.List(kind)
	if recs == nil {
		recs = []record.Record{}
	}
	e.replyJSON(conn, recs, err)
}

func (e *Engine) handleCommandRebuild(conn net.Conn, command *protocol.Command) {
	kind, ok := e.kindArg(conn, command, 0)
	if !ok {
		return
	}

	entries, err := e.Rebuild(kind)
	if err != nil {
		e.replyError(conn, err)
		return
	}

	e.reply(conn, protocol.StatusOK, strconv.Itoa(entries))
}

func (e *Engine) replyJSON(conn net.Conn, v any, err error) {
	if err != nil {
		e.replyError(conn, err)
		return
	}

	body, err := json.Marshal(v)
	if err != nil {
		e.replyError(conn, err)
		return
	}

	e.reply(conn, protocol.StatusOK, string(body))
}

func (e *Engine) replyError(conn net.Conn, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		e.reply(conn, protocol.StatusNotFound, ReplyNotFound)
	case errors.Is(err, report.ErrNoData):
		e.reply(conn, protocol.StatusNotFound, ReplyNoData)
	default:
		e.Logger.Error("command failed", zap.Error(err))
		e.reply(conn, protocol.StatusError, err.Error())
	}
}

func (e *Engine) reply(conn net.Conn, status protocol.Status, msg string) {
	encodedResponse, err := protocol.EncodeResponse(status, msg)
	if err != nil {
		e.Logger.Error("error encoding response", zap.Error(err))
		return
	}

	if _, err := conn.Write(encodedResponse); err != nil {
		e.Logger.Debug("client disconnected", zap.Error(err))
	}
}
