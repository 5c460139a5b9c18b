package tushare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Frame is the generic tabular payload of a Pro API response.
type Frame struct {
	Fields []string
	Items  [][]any
}

// Column returns the index of name in Fields, or -1.
func (f *Frame) Column(name string) int {
	for i, n := range f.Fields {
		if n == name {
			return i
		}
	}
	return -1
}

// Records renders the frame as a header line followed by one string row per item.
func (f *Frame) Records() [][]string {
	out := make([][]string, 0, len(f.Items)+1)
	out = append(out, append([]string(nil), f.Fields...))
	for _, item := range f.Items {
		row := make([]string, len(f.Fields))
		for i := range row {
			if i < len(item) {
				row[i] = cell(item[i])
			}
		}
		out = append(out, row)
	}
	return out
}

type request struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields"`
}

type response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *struct {
		Fields []string `json:"fields"`
		Items  [][]any  `json:"items"`
	} `json:"data"`
}

// query posts one Pro API call and returns its data frame.
func (c *Client) query(ctx context.Context, apiName string, params map[string]string) (*Frame, error) {
	body, err := json.Marshal(request{APIName: apiName, Token: c.token, Params: params})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<10))
		return nil, fmt.Errorf("unexpected status code: %d: %s", res.StatusCode, string(b))
	}

	var r response
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", apiName, err)
	}
	if r.Code != 0 {
		return nil, fmt.Errorf("%s: code %d: %s", apiName, r.Code, r.Msg)
	}
	if r.Data == nil {
		return &Frame{}, nil
	}
	return &Frame{Fields: r.Data.Fields, Items: r.Data.Items}, nil
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
