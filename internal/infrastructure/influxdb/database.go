package influxdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// queryResponse is the InfluxDB 1.x /query response envelope.
type queryResponse struct {
	Results []struct {
		Series []struct {
			Name    string          `json:"name"`
			Columns []string        `json:"columns"`
			Values  [][]interface{} `json:"values"`
		} `json:"series"`
		Error string `json:"error"`
	} `json:"results"`
	Error string `json:"error"`
}

// Databases returns the names of every database on the server.
func (c *Client) Databases(ctx context.Context) ([]string, error) {
	resp, err := c.query(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, result := range resp.Results {
		for _, series := range result.Series {
			for _, row := range series.Values {
				if len(row) == 0 {
					continue
				}
				if name, ok := row[0].(string); ok {
					names = append(names, name)
				}
			}
		}
	}

	return names, nil
}

// CreateDatabase creates a database. InfluxDB treats creating an existing
// database as a no-op.
func (c *Client) CreateDatabase(ctx context.Context, name string) error {
	_, err := c.query(ctx, "CREATE DATABASE "+QuoteIdent(name))
	return err
}

// EnsureDatabase creates the database when it is absent from the server's
// database list. It reports whether a create statement was issued.
func (c *Client) EnsureDatabase(ctx context.Context, name string) (bool, error) {
	names, err := c.Databases(ctx)
	if err != nil {
		return false, err
	}

	for _, existing := range names {
		if existing == name {
			return false, nil
		}
	}

	if err := c.CreateDatabase(ctx, name); err != nil {
		return false, err
	}

	return true, nil
}

// QuoteIdent quotes an InfluxQL identifier.
func QuoteIdent(name string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(name) + `"`
}

// query posts one InfluxQL statement to the v1 /query endpoint.
func (c *Client) query(ctx context.Context, statement string) (*queryResponse, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}

	endpoint := strings.TrimRight(c.opts.URL, "/") + "/query"
	body := strings.NewReader(url.Values{"q": {statement}}.Encode())

	var out queryResponse
	herr := c.client.HTTPService().DoPostRequest(ctx, endpoint, body,
		func(req *http.Request) {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if c.opts.Username != "" {
				req.SetBasicAuth(c.opts.Username, c.opts.Password)
			}
		},
		func(resp *http.Response) error {
			defer resp.Body.Close()
			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			return json.Unmarshal(data, &out)
		},
	)
	if herr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrQueryFailed, statement, herr)
	}

	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s: %s", ErrQueryFailed, statement, out.Error)
	}
	for _, result := range out.Results {
		if result.Error != "" {
			return nil, fmt.Errorf("%w: %s: %s", ErrQueryFailed, statement, result.Error)
		}
	}

	return &out, nil
}
