package jewelstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/0xRadioAc7iv/go-jewelstore/internal"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/protocol"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/record"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/report"
)

type (
	Record       = record.Record
	Product      = record.CatalogRecord
	Purchase     = record.PurchaseRecord
	TypeCount    = report.TypeCount
	ProductPrice = report.ProductPrice
	UserSpend    = report.UserSpend
	Response     = protocol.Response
)

// ErrNotFound is returned when the server has no record for a key, or no
// data for a report.
var ErrNotFound = errors.New("jewelstore: not found")

// ServerError carries the message of a failed command.
type ServerError struct {
	Cmd     string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("jewelstore: %s: %s", e.Cmd, e.Message)
}

// Client is safe for concurrent use; requests on one connection are
// serialized.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

func Connect(opts ...Option) (*Client, error) {
	o := &options{cfg: internal.DefaultConfig()}

	for _, opt := range opts {
		opt(o)
	}

	addr := net.JoinHostPort(o.cfg.Host, strconv.Itoa(o.cfg.Port))

	conn, err := net.DialTimeout("tcp", addr, o.dialTimeout)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn}, nil
}

func (c *Client) Ping() (string, error) {
	return c.call("ping")
}

// Lookup returns the record stored under key. kind is "catalog" or
// "purchase"; the result is a Product or a Purchase accordingly.
func (c *Client) Lookup(kind, key string) (Record, error) {
	k, err := record.ParseKind(kind)
	if err != nil {
		return nil, err
	}

	body, err := c.call("lookup", kind, key)
	if err != nil {
		return nil, err
	}

	switch k {
	case record.KindCatalog:
		var p Product
		if err := json.Unmarshal([]byte(body), &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		var p Purchase
		if err := json.Unmarshal([]byte(body), &p); err != nil {
			return nil, err
		}
		return p, nil
	}
}

// Insert adds a record built from fields in column order.
func (c *Client) Insert(kind string, fields ...string) error {
	_, err := c.call("insert", append([]string{kind}, fields...)...)
	return err
}

// Remove deletes every record stored under key and returns how many went.
func (c *Client) Remove(kind, key string) (int, error) {
	return c.callInt("remove", kind, key)
}

func (c *Client) Count(kind string) (int, error) {
	return c.callInt("count", kind)
}

// Rebuild regenerates the index for kind and returns its entry count.
func (c *Client) Rebuild(kind string) (int, error) {
	return c.callInt("rebuild", kind)
}

func (c *Client) List(kind string) ([]Record, error) {
	k, err := record.ParseKind(kind)
	if err != nil {
		return nil, err
	}

	body, err := c.call("list", kind)
	if err != nil {
		return nil, err
	}

	switch k {
	case record.KindCatalog:
		var ps []Product
		if err := json.Unmarshal([]byte(body), &ps); err != nil {
			return nil, err
		}
		return toRecords(ps), nil
	default:
		var ps []Purchase
		if err := json.Unmarshal([]byte(body), &ps); err != nil {
			return nil, err
		}
		return toRecords(ps), nil
	}
}

func (c *Client) MostSoldType() (TypeCount, error) {
	var res TypeCount
	err := c.callJSON(&res, "most-sold-type")
	return res, err
}

func (c *Client) MostExpensive() (ProductPrice, error) {
	var res ProductPrice
	err := c.callJSON(&res, "most-expensive")
	return res, err
}

func (c *Client) TopSpender() (UserSpend, error) {
	var res UserSpend
	err := c.callJSON(&res, "top-spender")
	return res, err
}

// Execute sends a raw command and returns the server's response whatever
// its status. Only transport failures are reported as errors.
func (c *Client) Execute(cmd string, args ...string) (*Response, error) {
	return c.sendCommand(cmd, args...)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(cmd string, args ...string) (string, error) {
	resp, err := c.sendCommand(cmd, args...)
	if err != nil {
		return "", err
	}

	switch resp.Status {
	case protocol.StatusOK:
		return resp.Body, nil
	case protocol.StatusNotFound:
		return "", ErrNotFound
	default:
		return "", &ServerError{Cmd: cmd, Message: resp.Body}
	}
}

func (c *Client) callInt(cmd string, args ...string) (int, error) {
	body, err := c.call(cmd, args...)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(body)
}

func (c *Client) callJSON(v any, cmd string, args ...string) error {
	body, err := c.call(cmd, args...)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), v)
}

func (c *Client) sendCommand(cmd string, args ...string) (*Response, error) {
	payload, err := protocol.EncodeCommand(cmd, args...)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.conn.Write(payload); err != nil {
		return nil, err
	}

	return protocol.DecodeResponse(c.conn)
}

func toRecords[T Record](in []T) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r
	}
	return out
}
