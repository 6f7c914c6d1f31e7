package aviasales

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	logx "farebot/pkg/logx"
)

const (
	defaultAPIURL    = "https://api.travelpayouts.com/aviasales/v3/prices_for_dates"
	defaultSearchURL = "https://search.aviasales.com"
	defaultTimeout   = 25 * time.Second
	defaultLimit     = 100
	defaultCurrency  = "rub"
	defaultMarket    = "ru"
)

// Offer is a single priced itinerary for one departure day.
type Offer struct {
	Price       int    `json:"price"`
	DepartureAt string `json:"departure_at"`
	ReturnAt    string `json:"return_at,omitempty"`
	Transfers   *int   `json:"transfers,omitempty"`
	Link        string `json:"link,omitempty"`
}

// Query describes one day-precision price lookup.
type Query struct {
	Origin      string
	Destination string
	DepartDate  string // "2006-01-02"
	OneWay      bool
	Direct      bool
	Limit       int
}

type Config struct {
	Token    string
	Currency string
	Market   string

	APIURL    string
	SearchURL string

	RequestTimeout time.Duration
	Limit          int
}

// Client queries the Travelpayouts prices_for_dates endpoint.
//
// The upstream is treated as best-effort: a non-success payload decodes to an
// empty offer list, and transport errors are returned so the caller can decide
// whether "no offers" or "upstream down" matters to it.
type Client struct {
	cfg  Config
	log  logx.Logger
	http *http.Client
}

func New(cfg Config, log logx.Logger) *Client {
	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = defaultAPIURL
	}
	if strings.TrimSpace(cfg.SearchURL) == "" {
		cfg.SearchURL = defaultSearchURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultTimeout
	}
	if cfg.Limit <= 0 {
		cfg.Limit = defaultLimit
	}
	if strings.TrimSpace(cfg.Currency) == "" {
		cfg.Currency = defaultCurrency
	}
	if strings.TrimSpace(cfg.Market) == "" {
		cfg.Market = defaultMarket
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg: cfg,
		log: log,
		// Timeout also bounds body reads, which a ctx deadline alone would
		// leave open on a stalled response.
		http: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// Search returns the offers for one departure day, cheapest-first as sorted
// by the upstream. A response with success=false yields an empty slice and
// no error.
func (c *Client) Search(ctx context.Context, q Query) ([]Offer, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = c.cfg.Limit
	}

	params := url.Values{}
	params.Set("origin", q.Origin)
	params.Set("destination", q.Destination)
	params.Set("departure_at", q.DepartDate)
	params.Set("one_way", strconv.FormatBool(q.OneWay))
	params.Set("direct", strconv.FormatBool(q.Direct))
	params.Set("sorting", "price")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("currency", c.cfg.Currency)
	params.Set("token", c.cfg.Token)
	params.Set("market", c.cfg.Market)

	cctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, c.cfg.APIURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("prices_for_dates: http=%d", resp.StatusCode)
	}

	var body struct {
		Success bool    `json:"success"`
		Data    []Offer `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("prices_for_dates: decode: %w", err)
	}
	if !body.Success {
		return nil, nil
	}
	return body.Data, nil
}

// BestOffer picks the day's representative offer: the first strict minimum by
// price in upstream order. Upstream ordering carries no meaning beyond price,
// so "first minimum wins" only keeps the choice deterministic.
func BestOffer(offers []Offer) (Offer, bool) {
	if len(offers) == 0 {
		return Offer{}, false
	}
	best := offers[0]
	for _, o := range offers[1:] {
		if o.Price < best.Price {
			best = o
		}
	}
	return best, true
}
