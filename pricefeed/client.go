package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/yumprotocol/yumstake-monitoring/params"
)

//ErrUnavailable the price api could not be reached or answered badly,
//price panels degrade to a fallback message, staking is not affected
var ErrUnavailable = errors.New("price feed unavailable")

//ErrBadWindow history is only served for the chart's fixed windows
var ErrBadWindow = errors.New("unsupported history window")

//Windows the selectable chart windows in days
var Windows = []int{7, 30, 365}

//CurrentPrice the spot figures shown above the chart
type CurrentPrice struct {
	Price     float64   `json:"current_price"`
	Change24h float64   `json:"price_change_percentage_24h"`
	MarketCap float64   `json:"market_cap"`
	Volume24h float64   `json:"total_volume"`
	FetchedAt time.Time `json:"fetched_at"`
}

//History one market chart window, points are [timestampMs, value] pairs
type History struct {
	Days         int          `json:"days"`
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
	FetchedAt    time.Time    `json:"fetched_at"`
}

/*
Delta the percentage change over the window, computed from the first
and last price point. ok is false while the window holds fewer than
two points.
*/
func (h *History) Delta() (first, last, pct float64, ok bool) {
	if h == nil || len(h.Prices) < 2 {
		return 0, 0, 0, false
	}
	first = h.Prices[0][1]
	last = h.Prices[len(h.Prices)-1][1]
	if first == 0 {
		return first, last, 0, false
	}
	return first, last, (last - first) / first * 100, true
}

//FormatPercent sign prefixed percentage for display
func FormatPercent(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

/*
Client fetches and caches market data for one coin. The current price
is held for the current-price poll interval, each history window for
the history poll interval, so handlers can read as often as they like
without hammering the api.
*/
type Client struct {
	baseURL string
	coinID  string
	apiKey  string
	hc      *http.Client

	mu        sync.Mutex
	current   *CurrentPrice
	histories map[int]*History

	quitChan chan struct{}
	stopped  bool
}

//NewClient create a price client, apiKey may be empty for keyless endpoints
func NewClient(baseURL, coinID, apiKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		coinID:    coinID,
		apiKey:    apiKey,
		hc:        &http.Client{Timeout: 15 * time.Second},
		histories: make(map[int]*History),
		quitChan:  make(chan struct{}),
	}
}

//Start begin background refresh of the cached windows
func (c *Client) Start() {
	go c.loop()
}

//Stop stop the background refresh
func (c *Client) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()
	close(c.quitChan)
}

func (c *Client) loop() {
	currentTick := time.NewTicker(params.CurrentPricePollInterval)
	historyTick := time.NewTicker(params.PriceHistoryPollInterval)
	defer currentTick.Stop()
	defer historyTick.Stop()
	for {
		select {
		case <-currentTick.C:
			if _, err := c.fetchCurrent(context.Background()); err != nil {
				log.Errorf("current price poll: %s", err)
			}
		case <-historyTick.C:
			c.mu.Lock()
			windows := make([]int, 0, len(c.histories))
			for days := range c.histories {
				windows = append(windows, days)
			}
			c.mu.Unlock()
			for _, days := range windows {
				if _, err := c.fetchHistory(context.Background(), days); err != nil {
					log.Errorf("history poll days=%d: %s", days, err)
				}
			}
		case <-c.quitChan:
			return
		}
	}
}

//CurrentPrice the cached spot price, refetched when older than the poll interval
func (c *Client) CurrentPrice(ctx context.Context) (*CurrentPrice, error) {
	c.mu.Lock()
	cached := c.current
	c.mu.Unlock()
	if cached != nil && time.Since(cached.FetchedAt) < params.CurrentPricePollInterval {
		return cached, nil
	}
	return c.fetchCurrent(ctx)
}

//History the cached chart window, refetched when older than the poll interval
func (c *Client) History(ctx context.Context, days int) (*History, error) {
	supported := false
	for _, w := range Windows {
		if w == days {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("%w: %d days", ErrBadWindow, days)
	}
	c.mu.Lock()
	cached := c.histories[days]
	c.mu.Unlock()
	if cached != nil && time.Since(cached.FetchedAt) < params.PriceHistoryPollInterval {
		return cached, nil
	}
	return c.fetchHistory(ctx, days)
}

func (c *Client) fetchCurrent(ctx context.Context) (*CurrentPrice, error) {
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true&include_market_cap=true&include_24hr_vol=true",
		c.baseURL, c.coinID)
	data, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	var payload map[string]map[string]float64
	if err = json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	coin, ok := payload[c.coinID]
	if !ok {
		return nil, fmt.Errorf("%w: coin %s missing from response", ErrUnavailable, c.coinID)
	}
	current := &CurrentPrice{
		Price:     coin["usd"],
		Change24h: coin["usd_24h_change"],
		MarketCap: coin["usd_market_cap"],
		Volume24h: coin["usd_24h_vol"],
		FetchedAt: time.Now(),
	}
	c.mu.Lock()
	c.current = current
	c.mu.Unlock()
	return current, nil
}

func (c *Client) fetchHistory(ctx context.Context, days int) (*History, error) {
	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d", c.baseURL, c.coinID, days)
	data, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	history := &History{Days: days, FetchedAt: time.Now()}
	if err = json.Unmarshal(data, history); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	c.mu.Lock()
	c.histories[days] = history
	c.mu.Unlock()
	return history, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.apiKey)
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	defer func() {
		if err2 := res.Body.Close(); err2 != nil {
			log.Errorf("close body: %s", err2)
		}
	}()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %s", ErrUnavailable, res.Status)
	}
	data, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	return data, nil
}
