package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client issues control requests to the daemon. One request is one
// connection, so a Client is cheap and safe to share.
type Client struct {
	path        string
	dialTimeout time.Duration
}

// Dial returns a client for the socket path. The daemon is not contacted
// until the first request.
func Dial(path string) *Client {
	return &Client{path: path, dialTimeout: 2 * time.Second}
}

// RemoteError is a failure reported by the daemon rather than the transport.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// Do performs one request/response exchange.
func (c *Client) Do(req Request) (Response, error) {
	conn, err := net.DialTimeout("unix", c.path, c.dialTimeout)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(connTimeout))

	encoded, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}
	encoded = append(encoded, '\n')
	if _, err := conn.Write(encoded); err != nil {
		return Response{}, fmt.Errorf("write request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != StatusOK {
		return resp, &RemoteError{Message: resp.Message}
	}
	return resp, nil
}

func (c *Client) doInto(req Request, out any) error {
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if len(resp.Data) == 0 {
		return fmt.Errorf("%s: response carried no data", req.Command)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", req.Command, err)
	}
	return nil
}

// Status returns the daemon display state.
func (c *Client) Status() (StatusData, error) {
	var data StatusData
	err := c.doInto(Request{Command: CommandStatus}, &data)
	return data, err
}

// Next advances to the next wallpaper.
func (c *Client) Next() (StatusData, error) {
	var data StatusData
	err := c.doInto(Request{Command: CommandNext}, &data)
	return data, err
}

// Prev returns to the previous wallpaper.
func (c *Client) Prev() (StatusData, error) {
	var data StatusData
	err := c.doInto(Request{Command: CommandPrev}, &data)
	return data, err
}

// Set displays a specific favorite.
func (c *Client) Set(id int64) (StatusData, error) {
	var data StatusData
	err := c.doInto(Request{Command: CommandSet, ID: id}, &data)
	return data, err
}

// Mode switches the display mode.
func (c *Client) Mode(mode string) (StatusData, error) {
	var data StatusData
	err := c.doInto(Request{Command: CommandMode, Mode: mode}, &data)
	return data, err
}

// Pause suspends automatic rotation.
func (c *Client) Pause() (StatusData, error) {
	var data StatusData
	err := c.doInto(Request{Command: CommandPause}, &data)
	return data, err
}

// Resume re-enables automatic rotation.
func (c *Client) Resume() (StatusData, error) {
	var data StatusData
	err := c.doInto(Request{Command: CommandResume}, &data)
	return data, err
}

// Reload asks the daemon to re-read its configuration file.
func (c *Client) Reload() (StatusData, error) {
	var data StatusData
	err := c.doInto(Request{Command: CommandReload}, &data)
	return data, err
}

// FavoritesList returns the favorites library.
func (c *Client) FavoritesList() (FavoritesListData, error) {
	var data FavoritesListData
	err := c.doInto(Request{Command: CommandFavoritesList}, &data)
	return data, err
}

// FavoritesStats returns library statistics.
func (c *Client) FavoritesStats() (StatsData, error) {
	var data StatsData
	err := c.doInto(Request{Command: CommandFavoritesStats}, &data)
	return data, err
}

// FavoritesAdd downloads a URL into the library.
func (c *Client) FavoritesAdd(url, source string) (WallpaperData, error) {
	var data WallpaperData
	err := c.doInto(Request{Command: CommandFavoritesAdd, URL: url, Source: source}, &data)
	return data, err
}

// FavoritesRemove deletes a favorite by id.
func (c *Client) FavoritesRemove(id int64) error {
	_, err := c.Do(Request{Command: CommandFavoritesRemove, ID: id})
	return err
}

// Import copies a local file into the library.
func (c *Client) Import(path string) (WallpaperData, error) {
	var data WallpaperData
	err := c.doInto(Request{Command: CommandImport, Path: path}, &data)
	return data, err
}

// CacheStats returns preview cache statistics.
func (c *Client) CacheStats() (StatsData, error) {
	var data StatsData
	err := c.doInto(Request{Command: CommandCacheStats}, &data)
	return data, err
}

// CachePrune evicts previews back under the budget.
func (c *Client) CachePrune() (PruneData, error) {
	var data PruneData
	err := c.doInto(Request{Command: CommandCachePrune}, &data)
	return data, err
}

// Search queries a remote source, or every enabled source when the source
// name is empty.
func (c *Client) Search(source, query, aspect string, page, perPage int) (SearchData, error) {
	var data SearchData
	err := c.doInto(Request{
		Command: CommandSearch,
		Source:  source,
		Query:   query,
		Aspect:  aspect,
		Page:    page,
		PerPage: perPage,
	}, &data)
	return data, err
}

// Quit asks the daemon to shut down.
func (c *Client) Quit() error {
	_, err := c.Do(Request{Command: CommandQuit})
	return err
}
