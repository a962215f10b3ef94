package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"ascbridge/internal/config"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// Connect asks the daemon to open the peer connection.
func (c *Client) Connect() (*ConnectResponse, error) {
	var resp ConnectResponse
	if err := c.call("Connect", ConnectRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Disconnect asks the daemon to close the peer connection.
func (c *Client) Disconnect() (*DisconnectResponse, error) {
	var resp DisconnectResponse
	if err := c.call("Disconnect", DisconnectRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Restart asks the daemon to recreate a running connection.
func (c *Client) Restart() (*RestartResponse, error) {
	var resp RestartResponse
	if err := c.call("Restart", RestartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown asks the daemon process to exit.
func (c *Client) Shutdown() (*ShutdownResponse, error) {
	var resp ShutdownResponse
	if err := c.call("Shutdown", ShutdownRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Send queues a request and optionally waits for its answer.
func (c *Client) Send(req SendRequest) (*SendResponse, error) {
	var resp SendResponse
	if err := c.call("Send", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Params retrieves the connection parameters in effect.
func (c *Client) Params() (*ParamsResponse, error) {
	var resp ParamsResponse
	if err := c.call("Params", ParamsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetParams replaces the connection parameters.
func (c *Client) SetParams(params config.ConnectionParams) (*SetParamsResponse, error) {
	var resp SetParamsResponse
	if err := c.call("SetParams", SetParamsRequest{Params: params}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History retrieves up to limit journal entries, newest first.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.call("History", HistoryRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
