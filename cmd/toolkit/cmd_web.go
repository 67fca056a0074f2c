package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skgsergio/bkp9151-toolkit/lib/bkp9151"
)

//go:embed webui
var webuiFS embed.FS

var (
	webPortFlag string
	webAddrFlag string
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start web server with UI for device interaction",
	Long: `Start a web server that serves a UI for interacting with a BK Precision
9151. The UI talks to the device through a WebSocket connection; each
browser tab gets its own session.`,
	Run: func(cmd *cobra.Command, args []string) {
		executeWeb(webAddrFlag, webPortFlag)
	},
}

func init() {
	webCmd.Flags().StringVarP(&webAddrFlag, "address", "a", "localhost", "Address to bind the web server")
	webCmd.Flags().StringVarP(&webPortFlag, "web-port", "w", "8080", "Port for the web server")
	rootCmd.AddCommand(webCmd)
}

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// WSResponse represents a WebSocket response
type WSResponse struct {
	Command     string      `json:"command"`
	Success     bool        `json:"success"`
	Error       string      `json:"error,omitempty"`
	ErrorReport string      `json:"error_report,omitempty"`
	Data        interface{} `json:"data,omitempty"`
}

// ConnectRequest selects the serial port to open
type ConnectRequest struct {
	Port string `json:"port"`
}

// PollRequest represents the data for a poll command
type PollRequest struct {
	Port     string `json:"port,omitempty"`
	Interval int    `json:"interval"` // interval in milliseconds
}

// OutputRequest switches the output on or off
type OutputRequest struct {
	On bool `json:"on"`
}

// SetpointRequest carries a setpoint in mV or mA
type SetpointRequest struct {
	Value int `json:"value"`
}

// SCPIRequest carries a raw command
type SCPIRequest struct {
	Command string `json:"command"`
}

var errNotConnected = errors.New("not connected to a device")

// Client represents a WebSocket client connection
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	// mu guards device and serializes every exchange with it
	mu         sync.Mutex
	device     *bkp9151.Session
	port       string
	pollCancel context.CancelFunc
	pollDone   chan struct{}

	log logrus.FieldLogger
}

func newWebMux() (*http.ServeMux, error) {
	// Serve static files from embedded webui directory
	staticFS, err := fs.Sub(webuiFS, "webui")
	if err != nil {
		return nil, fmt.Errorf("failed to access webui directory: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("/ws", handleWebSocket)
	setupMetrics(mux)
	return mux, nil
}

func executeWeb(addr, port string) {
	mux, err := newWebMux()
	if err != nil {
		log.Fatal(err)
	}

	listenAddr := fmt.Sprintf("%s:%s", addr, port)
	fmt.Printf("Starting web server on http://%s\n", listenAddr)
	fmt.Printf("Press Ctrl+C to stop the server\n")

	if err := http.ListenAndServe(listenAddr, mux); err != nil {
		log.Fatalf("Failed to start web server: %v", err)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &Client{
		conn: conn,
		log:  log.WithField("remote", r.RemoteAddr),
	}

	defer func() {
		client.cleanup()
		conn.Close()
	}()

	client.log.Info("WebSocket client connected")

	for {
		var msg WSMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				client.log.WithError(err).Warn("WebSocket error")
			}
			break
		}

		client.handleMessage(msg)
	}

	client.log.Info("WebSocket client disconnected")
}

func (c *Client) handleMessage(msg WSMessage) {
	switch msg.Command {
	case "list-serial":
		c.handleListSerial()
	case "connect":
		c.handleConnect(msg.Data)
	case "disconnect":
		c.closeDevice()
		c.sendResponse(WSResponse{Command: msg.Command, Success: true})
	case "identify":
		c.withDevice(msg.Command, func(d *bkp9151.Session) (interface{}, error) {
			reply, err := d.Identify()
			return reply.String(), err
		})
	case "measure":
		c.withDevice(msg.Command, func(d *bkp9151.Session) (interface{}, error) {
			return d.Measure()
		})
	case "poll":
		c.handlePoll(msg.Data)
	case "stop":
		c.handleStop()
	case "set-output":
		var req OutputRequest
		c.withRequest(msg, &req, func(d *bkp9151.Session) (interface{}, error) {
			return req, d.SetOutputState(bkp9151.StateOf(req.On))
		})
	case "set-voltage":
		var req SetpointRequest
		c.withRequest(msg, &req, func(d *bkp9151.Session) (interface{}, error) {
			return req, d.SetVoltage(req.Value)
		})
	case "set-current":
		var req SetpointRequest
		c.withRequest(msg, &req, func(d *bkp9151.Session) (interface{}, error) {
			return req, d.SetCurrent(req.Value)
		})
	case "scpi":
		var req SCPIRequest
		c.withRequest(msg, &req, func(d *bkp9151.Session) (interface{}, error) {
			reply, err := d.Send(req.Command)
			if v, ok := reply.Value(); ok {
				return v, err
			}
			return nil, err
		})
	case "close":
		c.handleClose()
	default:
		c.sendResponse(WSResponse{
			Command: msg.Command,
			Success: false,
			Error:   fmt.Sprintf("unknown command: %s", msg.Command),
		})
	}
}

func (c *Client) handleListSerial() {
	ports, err := bkp9151.ListPorts()
	if err != nil {
		c.sendResponse(WSResponse{
			Command: "list-serial",
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.sendResponse(WSResponse{
		Command: "list-serial",
		Success: true,
		Data:    ports,
	})
}

func (c *Client) handleConnect(data json.RawMessage) {
	var req ConnectRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Port == "" {
		c.sendResponse(WSResponse{
			Command: "connect",
			Success: false,
			Error:   "invalid connect request: a port is required",
		})
		return
	}

	if err := c.openDevice(req.Port); err != nil {
		c.sendResponse(WSResponse{Command: "connect", Success: false, Error: err.Error()})
		return
	}

	c.sendResponse(WSResponse{
		Command: "connect",
		Success: true,
		Data:    map[string]interface{}{"port": req.Port},
	})
}

// openDevice replaces the current session with one on port.
func (c *Client) openDevice(port string) error {
	c.closeDevice()

	device, err := dialSession(port)
	if err != nil {
		if errors.Is(err, bkp9151.ErrDeviceBusy) {
			return fmt.Errorf("%s is in use by another program", port)
		}
		return fmt.Errorf("failed to connect to device: %w", err)
	}

	c.mu.Lock()
	c.device = device
	c.port = port
	c.mu.Unlock()

	c.log.WithField("port", port).Info("device connected")
	return nil
}

// withDevice runs fn on the session and sends its result.
func (c *Client) withDevice(command string, fn func(*bkp9151.Session) (interface{}, error)) {
	c.mu.Lock()
	if c.device == nil {
		c.mu.Unlock()
		c.sendResponse(WSResponse{Command: command, Success: false, Error: errNotConnected.Error()})
		return
	}
	data, err := fn(c.device)
	report := c.device.LastErrorReport()
	c.mu.Unlock()

	resp := WSResponse{Command: command, Success: err == nil, Data: data, ErrorReport: report.Raw}
	if err != nil {
		resp.Error = err.Error()
		resp.Data = nil
	}
	c.sendResponse(resp)
}

// withRequest decodes msg.Data into req before running fn.
func (c *Client) withRequest(msg WSMessage, req interface{}, fn func(*bkp9151.Session) (interface{}, error)) {
	if err := json.Unmarshal(msg.Data, req); err != nil {
		c.sendResponse(WSResponse{
			Command: msg.Command,
			Success: false,
			Error:   fmt.Sprintf("invalid %s request: %v", msg.Command, err),
		})
		return
	}
	c.withDevice(msg.Command, fn)
}

func (c *Client) handlePoll(data json.RawMessage) {
	var req PollRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendResponse(WSResponse{
			Command: "poll",
			Success: false,
			Error:   fmt.Sprintf("invalid poll request: %v", err),
		})
		return
	}

	// Validate interval
	if req.Interval < 100 {
		req.Interval = 100 // minimum 100ms
	}

	// Stop existing polling if any
	c.stopPolling()

	c.mu.Lock()
	current := c.port
	c.mu.Unlock()

	if req.Port != "" && req.Port != current {
		if err := c.openDevice(req.Port); err != nil {
			c.sendResponse(WSResponse{Command: "poll", Success: false, Error: err.Error()})
			return
		}
	}

	c.mu.Lock()
	if c.device == nil {
		c.mu.Unlock()
		c.sendResponse(WSResponse{Command: "poll", Success: false, Error: errNotConnected.Error()})
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.pollCancel = cancel
	c.pollDone = done
	port := c.port
	c.mu.Unlock()

	// Send success response
	c.sendResponse(WSResponse{
		Command: "poll",
		Success: true,
		Data:    map[string]interface{}{"port": port, "interval": req.Interval},
	})

	go c.pollDevice(ctx, time.Duration(req.Interval)*time.Millisecond, done)
}

func (c *Client) pollDevice(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.device == nil {
				c.mu.Unlock()
				return
			}

			m, err := c.device.Measure()
			report := c.device.LastErrorReport()
			c.mu.Unlock()

			if err != nil {
				c.sendResponse(WSResponse{
					Command: "poll-data",
					Success: false,
					Error:   fmt.Sprintf("failed to get measurement: %v", err),
				})
				continue
			}

			c.sendResponse(WSResponse{
				Command:     "poll-data",
				Success:     true,
				Data:        m,
				ErrorReport: report.Raw,
			})
		}
	}
}

func (c *Client) handleStop() {
	c.stopPolling()

	c.sendResponse(WSResponse{
		Command: "stop",
		Success: true,
	})
}

func (c *Client) handleClose() {
	c.sendResponse(WSResponse{
		Command: "close",
		Success: true,
	})

	// Close the WebSocket connection
	c.conn.Close()
}

// stopPolling cancels the poll goroutine and waits for it to exit.
func (c *Client) stopPolling() {
	c.mu.Lock()
	cancel, done := c.pollCancel, c.pollDone
	c.pollCancel, c.pollDone = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (c *Client) closeDevice() {
	c.stopPolling()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		if err := c.device.Close(); err != nil {
			c.log.WithError(err).Warn("failed to close device")
		}
		c.device = nil
		c.port = ""
	}
}

func (c *Client) cleanup() {
	c.closeDevice()
}

func (c *Client) sendResponse(resp WSResponse) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WriteJSON(resp); err != nil {
		c.log.WithError(err).Warn("Failed to send WebSocket response")
	}
}
