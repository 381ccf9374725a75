package bus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go"

	"github.com/kubev2v/asset-agent/internal/message"
	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

// Client issues requests to a running agent.
type Client struct {
	nc  *nats.Conn
	cfg Config
}

func NewClient(nc *nats.Conn, cfg Config) *Client {
	return &Client{nc: nc, cfg: cfg}
}

// GetID asks the agent for the numeric id of an internal name.
func (c *Client) GetID(ctx context.Context, name string) (int64, error) {
	reply, err := c.request(ctx, c.cfg.GetIDSubject, []byte(name), name)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(string(reply.Data), 10, 64)
	if err != nil {
		return 0, srvErrors.NewInvalidFormatError("GET_ID reply %q is not an id", reply.Data)
	}
	return id, nil
}

// Send submits an asset change and waits for the stored result.
func (c *Client) Send(ctx context.Context, m *message.Message) (*message.Message, error) {
	data, err := m.Encode()
	if err != nil {
		return nil, err
	}
	reply, err := c.request(ctx, c.cfg.ChangeSubject, data, m.Name)
	if err != nil {
		return nil, err
	}
	return message.Decode(reply.Data)
}

func (c *Client) request(ctx context.Context, subject string, data []byte, element string) (*nats.Msg, error) {
	if _, ok := ctx.Deadline(); !ok && c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	req := nats.NewMsg(subject)
	req.Data = data
	reply, err := c.nc.RequestMsgWithContext(ctx, req)
	if err != nil {
		return nil, srvErrors.NewInternalError("request "+subject, err)
	}
	if reply.Header.Get(HeaderStatus) == StatusOK {
		return reply, nil
	}

	switch reply.Header.Get(HeaderErrorType) {
	case ErrorTypeNotFound:
		return nil, srvErrors.NewElementNotFoundError(element)
	case ErrorTypeInvalidFormat:
		return nil, srvErrors.NewInvalidFormatError("%s", reply.Data)
	case ErrorTypeConflict:
		return nil, srvErrors.NewConflictError(element, fmt.Errorf("%s", reply.Data))
	default:
		return nil, srvErrors.NewInternalError("request "+subject, fmt.Errorf("%s", reply.Data))
	}
}
