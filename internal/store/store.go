//
// minimal client for the supabase (postgrest) relational backend.
// exposes just the generic select/insert/update/upsert operations
// the scoring pipeline needs; everything else about the store is
// its own business.
//
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/nsip/scrn-score/internal/util"
)

// Client talks to one postgrest endpoint.
type Client struct {
	baseURL string
	apiKey  string
}

// New creates a client for the store at baseURL.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

//
// Select fetches the rows of a table matching every filter column
// (equality match). the result is the parsed json array of rows.
//
func (c *Client) Select(table string, filter map[string]string) (gjson.Result, error) {
	query := url.Values{}
	for col, val := range filter {
		query.Set(col, "eq."+val)
	}
	res, err := util.Fetch("GET", c.tableURL(table, query), c.headers(""), nil)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "select from %s failed", table)
	}
	return gjson.ParseBytes(res), nil
}

//
// Insert writes a single record or a batch of records, returning
// the stored rows (including any store-generated columns).
//
func (c *Client) Insert(table string, records interface{}) (gjson.Result, error) {
	body, err := json.Marshal(records)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "cannot marshal records for %s", table)
	}
	res, err := util.Fetch("POST", c.tableURL(table, nil),
		c.headers("return=representation"), bytes.NewBuffer(body))
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "insert into %s failed", table)
	}
	return gjson.ParseBytes(res), nil
}

//
// Update patches every row matching the filter columns with the
// given column values.
//
func (c *Client) Update(table string, patch map[string]interface{}, filter map[string]string) (gjson.Result, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "cannot marshal patch for %s", table)
	}
	query := url.Values{}
	for col, val := range filter {
		query.Set(col, "eq."+val)
	}
	res, err := util.Fetch("PATCH", c.tableURL(table, query),
		c.headers("return=representation"), bytes.NewBuffer(body))
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "update of %s failed", table)
	}
	return gjson.ParseBytes(res), nil
}

//
// Upsert inserts records, merging into any existing rows that share
// the conflict key columns (comma-separated column list).
//
func (c *Client) Upsert(table string, records interface{}, conflict string) (gjson.Result, error) {
	body, err := json.Marshal(records)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "cannot marshal records for %s", table)
	}
	query := url.Values{}
	if conflict != "" {
		query.Set("on_conflict", conflict)
	}
	res, err := util.Fetch("POST", c.tableURL(table, query),
		c.headers("resolution=merge-duplicates,return=representation"), bytes.NewBuffer(body))
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "upsert into %s failed", table)
	}
	return gjson.ParseBytes(res), nil
}

// default request headers for the store, postgrest wants the api
// key both as apikey and as a bearer token
func (c *Client) headers(prefer string) map[string]string {
	h := map[string]string{
		"Content-Type":  "application/json",
		"Accept":        "application/json",
		"apikey":        c.apiKey,
		"Authorization": "Bearer " + c.apiKey,
	}
	if prefer != "" {
		h["Prefer"] = prefer
	}
	return h
}

func (c *Client) tableURL(table string, query url.Values) string {
	u := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
