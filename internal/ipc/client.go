package ipc

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/bnema/waywall/internal/logger"
	"github.com/bnema/waywall/internal/output"
)

// ErrNotRunning means nothing listens on the socket
var ErrNotRunning = errors.New("waywall is not running")

// Client talks to a running waywall instance
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for socketPath, or SocketPath() when empty
func NewClient(socketPath string) *Client {
	if socketPath == "" {
		socketPath = SocketPath()
	}
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// WithTimeout sets the per-request deadline
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	return c
}

// Status queries the running instance
func (c *Client) Status() (output.Status, error) {
	msg, err := NewStatusMessage()
	if err != nil {
		return output.Status{}, fmt.Errorf("failed to create status message: %w", err)
	}

	response, err := c.sendMessage(msg)
	if err != nil {
		return output.Status{}, err
	}
	return GetStatusResponse(response)
}

// IsRunning reports whether an instance answers status queries
func (c *Client) IsRunning() bool {
	_, err := c.Status()
	return err == nil
}

// sendMessage sends a message and returns the response
func (c *Client) sendMessage(msg *structpb.Struct) (*structpb.Struct, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		if isNotListening(err) {
			return nil, ErrNotRunning
		}
		return nil, fmt.Errorf("failed to connect to waywall: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Errorf("Failed to close IPC connection: %v", err)
		}
	}()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		logger.Warnf("Failed to set connection deadline: %v", err)
	}

	if err := writeMessage(conn, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	response, err := readMessage(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return response, nil
}

// isNotListening matches a missing socket file or a refused connection
func isNotListening(err error) bool {
	return errors.Is(err, syscall.ENOENT) || errors.Is(err, syscall.ECONNREFUSED)
}
