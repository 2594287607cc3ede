package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"log/slog"

	"shoebox/internal/daemon"
	"shoebox/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. requestStop
// is invoked when a client asks the daemon process to shut down.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, requestStop func(), logger *slog.Logger) (*Server, error) {
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

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, requestStop: requestStop, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Shoebox", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
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
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun shoebox daemon stop"))
	}
}

type service struct {
	daemon      *daemon.Daemon
	requestStop func()
	logger      *slog.Logger
	ctx         context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	resp.Status = s.daemon.Status()
	return nil
}

func (s *service) Folders(req FoldersRequest, resp *FoldersResponse) error {
	resp.Path = req.Path
	resp.Folders = s.daemon.Folders(req.Path)
	return nil
}

func (s *service) SetProcessed(req SetProcessedRequest, resp *SetProcessedResponse) error {
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("set processed requires a path")
	}
	if err := s.daemon.SetProcessed(req.Path, req.Processed, req.Recursive); err != nil {
		return err
	}
	resp.Updated = true
	s.log().Info("folder flag updated",
		logging.String(logging.FieldEventType, "folder_flagged"),
		logging.String("path", req.Path),
		logging.Bool("processed", req.Processed),
		logging.Bool("recursive", req.Recursive))
	return nil
}

func (s *service) Rescan(_ RescanRequest, resp *RescanResponse) error {
	if err := s.daemon.Rescan(); err != nil {
		return err
	}
	resp.FolderCount = s.daemon.Status().FolderCount
	s.log().Info("library rescanned",
		logging.String(logging.FieldEventType, "library_rescan"))
	return nil
}

func (s *service) Stage(req StageRequest, resp *StageResponse) error {
	id, err := s.daemon.StageAsync(req.Source)
	if err != nil {
		return err
	}
	resp.TaskID = id
	s.log().Info("staging started",
		logging.String(logging.FieldEventType, "stage_started"),
		logging.String(logging.FieldTaskID, id),
		logging.String("source", req.Source))
	return nil
}

func (s *service) Analyze(req AnalyzeRequest, resp *AnalyzeResponse) error {
	id, err := s.daemon.AnalyzeAsync(req.Source, req.StartDate, req.EndDate)
	if err != nil {
		return err
	}
	resp.TaskID = id
	s.log().Info("analysis started",
		logging.String(logging.FieldEventType, "analyze_started"),
		logging.String(logging.FieldTaskID, id))
	return nil
}

func (s *service) Commit(req CommitRequest, resp *CommitResponse) error {
	id, err := s.daemon.CommitAsync(req.Decisions)
	if err != nil {
		return err
	}
	resp.TaskID = id
	s.log().Info("commit started",
		logging.String(logging.FieldEventType, "commit_started"),
		logging.String(logging.FieldTaskID, id),
		logging.Int("decision_count", len(req.Decisions)))
	return nil
}

func (s *service) Task(req TaskRequest, resp *TaskResponse) error {
	resp.Progress = s.daemon.Task(req.ID)
	return nil
}

func (s *service) FlushTasks(_ FlushTasksRequest, resp *FlushTasksResponse) error {
	s.daemon.FlushTasks()
	resp.Flushed = true
	s.log().Info("tasks flushed",
		logging.String(logging.FieldEventType, "tasks_flushed"))
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	if req.Clear {
		if err := s.daemon.ClearHistory(s.ctx); err != nil {
			return err
		}
		resp.Runs = nil
		return nil
	}
	runs, err := s.daemon.History(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Runs = runs
	return nil
}

func (s *service) Backups(_ BackupsRequest, resp *BackupsResponse) error {
	resp.Backups = s.daemon.Backups()
	return nil
}

func (s *service) RestoreBackup(req RestoreBackupRequest, resp *RestoreBackupResponse) error {
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("restore requires a backup path")
	}
	if err := s.daemon.RestoreBackup(req.Path); err != nil {
		return err
	}
	resp.Restored = true
	s.log().Info("snapshot restored",
		logging.String(logging.FieldEventType, "snapshot_restored"),
		logging.String("backup", req.Path))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Info("daemon stop requested",
		logging.String(logging.FieldEventType, "daemon_stop_requested"))
	if s.requestStop != nil {
		s.requestStop()
	}
	resp.Stopped = true
	return nil
}
