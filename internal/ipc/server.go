package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"ascbridge/internal/daemon"
	"ascbridge/internal/journal"
	"ascbridge/internal/logging"
	"ascbridge/internal/wire"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server
	shutdown  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	shutdown := make(chan struct{})
	rpcServer := rpc.NewServer()
	srv := &service{
		daemon:   d,
		logger:   logging.NewComponentLogger(logger, "ipc"),
		ctx:      serverCtx,
		shutdown: sync.OnceFunc(func() { close(shutdown) }),
	}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		shutdown:  shutdown,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			go s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(conn))
		}
	}()
}

// ShutdownRequested is closed once a client asks the daemon to exit.
func (s *Server) ShutdownRequested() <-chan struct{} {
	return s.shutdown
}

// Close stops the server and removes the socket file. Connections still being
// served are left to finish on their own.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}

type service struct {
	daemon   *daemon.Daemon
	logger   *slog.Logger
	ctx      context.Context
	shutdown func()
}

func (s *service) Connect(_ ConnectRequest, resp *ConnectResponse) error {
	s.logger.Debug("connect requested")
	if err := s.daemon.Connect(s.ctx); err != nil {
		return err
	}
	st := s.daemon.Status().Connector
	resp.State = st.State.String()
	resp.SessionID = st.SessionID
	return nil
}

func (s *service) Disconnect(_ DisconnectRequest, resp *DisconnectResponse) error {
	s.logger.Debug("disconnect requested")
	if err := s.daemon.Disconnect(); err != nil {
		return err
	}
	resp.State = s.daemon.Status().Connector.State.String()
	return nil
}

func (s *service) Restart(_ RestartRequest, resp *RestartResponse) error {
	s.logger.Debug("restart requested")
	if err := s.daemon.Restart(s.ctx); err != nil {
		return err
	}
	st := s.daemon.Status().Connector
	resp.State = st.State.String()
	resp.SessionID = st.SessionID
	return nil
}

func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	s.logger.Info("shutdown requested via IPC",
		logging.String(logging.FieldEventType, "daemon_shutdown_requested"))
	s.shutdown()
	resp.Acknowledged = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	conn := status.Connector
	*resp = StatusResponse{
		Running:     status.Running,
		PID:         status.PID,
		StartedAt:   formatTime(status.StartedAt),
		LockPath:    status.LockPath,
		JournalPath: status.JournalPath,
		PeerMode:    status.PeerMode,
		State:       conn.State.String(),
		SessionID:   conn.SessionID,
		ConnectedAt: formatTime(conn.ConnectedAt),
		Queued:      conn.Queued,
		Unfinished:  conn.Unfinished,
		QueueLocked: conn.QueueLocked,
		Answers:     status.Answers,
		Waiting:     status.Waiting,
		Params:      conn.Params,
	}
	for _, sc := range status.Scopes {
		resp.Scopes = append(resp.Scopes, ScopeStatus{
			Name:        sc.Name,
			Armed:       sc.Armed,
			Captures:    sc.Captures,
			Resets:      sc.Resets,
			Signals:     sc.Signals,
			Samples:     sc.Samples,
			LastCapture: formatTime(sc.LastCapture),
		})
	}
	return nil
}

func (s *service) Send(req SendRequest, resp *SendResponse) error {
	request, err := wire.NewRequest(req.Type, req.Name, req.Method, req.Arguments)
	if err != nil {
		return err
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	result, err := s.daemon.Send(s.ctx, request, wait)
	if err != nil {
		return err
	}
	resp.Key = result.Key
	resp.Answered = result.Answered
	if result.Answered {
		resp.Value = result.Answer.Value
		if result.Answer.IsNull() {
			resp.Value = []byte("null")
		}
	}
	return nil
}

func (s *service) Params(_ ParamsRequest, resp *ParamsResponse) error {
	resp.Params = s.daemon.Params()
	return nil
}

func (s *service) SetParams(req SetParamsRequest, resp *SetParamsResponse) error {
	if err := s.daemon.SetParams(s.ctx, req.Params); err != nil {
		return err
	}
	resp.State = s.daemon.Status().Connector.State.String()
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	entries, err := s.daemon.History(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Entries = make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		resp.Entries = append(resp.Entries, convertEntry(e))
	}
	return nil
}

func convertEntry(e journal.Entry) HistoryEntry {
	return HistoryEntry{
		ID:         e.ID,
		SessionID:  e.SessionID,
		Direction:  string(e.Direction),
		Type:       e.Type,
		Name:       e.Name,
		Method:     e.Method,
		Key:        e.Key,
		Answer:     e.Answer,
		RecordedAt: formatTime(e.RecordedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
