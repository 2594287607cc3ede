package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
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

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Shoebox.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Folders retrieves the child rows of a folder.
func (c *Client) Folders(path string) (*FoldersResponse, error) {
	var resp FoldersResponse
	if err := c.client.Call("Shoebox.Folders", FoldersRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetProcessed flags a folder.
func (c *Client) SetProcessed(path string, processed, recursive bool) (*SetProcessedResponse, error) {
	var resp SetProcessedResponse
	req := SetProcessedRequest{Path: path, Processed: processed, Recursive: recursive}
	if err := c.client.Call("Shoebox.SetProcessed", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Rescan rebuilds the folder tree from disk.
func (c *Client) Rescan() (*RescanResponse, error) {
	var resp RescanResponse
	if err := c.client.Call("Shoebox.Rescan", RescanRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stage starts a staging run.
func (c *Client) Stage(source string) (*StageResponse, error) {
	var resp StageResponse
	if err := c.client.Call("Shoebox.Stage", StageRequest{Source: source}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Analyze starts an analyze run.
func (c *Client) Analyze(source, startDate, endDate string) (*AnalyzeResponse, error) {
	var resp AnalyzeResponse
	req := AnalyzeRequest{Source: source, StartDate: startDate, EndDate: endDate}
	if err := c.client.Call("Shoebox.Analyze", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Commit starts a disposition run against the retained analysis.
func (c *Client) Commit(decisions map[string]string) (*CommitResponse, error) {
	var resp CommitResponse
	if err := c.client.Call("Shoebox.Commit", CommitRequest{Decisions: decisions}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Task polls one task.
func (c *Client) Task(id string) (*TaskResponse, error) {
	var resp TaskResponse
	if err := c.client.Call("Shoebox.Task", TaskRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FlushTasks aborts every in-flight task.
func (c *Client) FlushTasks() (*FlushTasksResponse, error) {
	var resp FlushTasksResponse
	if err := c.client.Call("Shoebox.FlushTasks", FlushTasksRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History lists recorded runs, or clears them when req.Clear is set.
func (c *Client) History(req HistoryRequest) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.client.Call("Shoebox.History", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Backups lists snapshot backups.
func (c *Client) Backups() (*BackupsResponse, error) {
	var resp BackupsResponse
	if err := c.client.Call("Shoebox.Backups", BackupsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RestoreBackup replaces the live tree with a backup.
func (c *Client) RestoreBackup(path string) (*RestoreBackupResponse, error) {
	var resp RestoreBackupResponse
	if err := c.client.Call("Shoebox.RestoreBackup", RestoreBackupRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop asks the daemon process to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Shoebox.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
