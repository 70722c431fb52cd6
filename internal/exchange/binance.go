package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"futures_bot/internal/helper"
	"futures_bot/internal/models"
)

const (
	MainnetURL = "https://fapi.binance.com"
	TestnetURL = "https://testnet.binancefuture.com"

	defaultRecvWindow = 5000
	defaultTimeout    = 10 * time.Second
)

// Options: параметры клиента.
type Options struct {
	APIKey     string
	APISecret  string
	BaseURL    string
	Testnet    bool
	RecvWindow int64
	Timeout    time.Duration
}

// Binance: REST-клиент USDT-M фьючерсов (/fapi).
type Binance struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	recvWindow int64
	http       *http.Client
	log        *zap.Logger
	now        func() time.Time
}

var _ Gateway = (*Binance)(nil)

func NewBinance(opts Options, log *zap.Logger) *Binance {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = MainnetURL
		if opts.Testnet {
			base = TestnetURL
		}
	}
	if opts.RecvWindow <= 0 {
		opts.RecvWindow = defaultRecvWindow
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Binance{
		apiKey:     opts.APIKey,
		apiSecret:  opts.APISecret,
		baseURL:    base,
		recvWindow: opts.RecvWindow,
		http:       &http.Client{Timeout: opts.Timeout},
		log:        log,
		now:        time.Now,
	}
}

// USDTBalance: баланс кошелька USDT (/fapi/v2/balance).
func (b *Binance) USDTBalance(ctx context.Context) (float64, error) {
	body, err := b.signed(ctx, http.MethodGet, "/fapi/v2/balance", url.Values{})
	if err != nil {
		return 0, err
	}

	var rows []struct {
		Asset   string `json:"asset"`
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return 0, errors.Wrap(err, "decode balance")
	}
	for _, r := range rows {
		if r.Asset == "USDT" {
			return parseFloat(r.Balance, "balance")
		}
	}
	return 0, nil
}

// SetLeverage: плечо по символу (/fapi/v1/leverage).
func (b *Binance) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("leverage", strconv.Itoa(leverage))
	_, err := b.signed(ctx, http.MethodPost, "/fapi/v1/leverage", params)
	return err
}

// MarkPrice: текущая mark price (/fapi/v1/premiumIndex).
func (b *Binance) MarkPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	body, err := b.public(ctx, "/fapi/v1/premiumIndex", params)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Symbol    string `json:"symbol"`
		MarkPrice string `json:"markPrice"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, errors.Wrap(err, "decode premiumIndex")
	}
	return parseFloat(resp.MarkPrice, "markPrice")
}

// PlaceMarketOrder: рыночный ордер; цена исполнения из avgPrice.
func (b *Binance) PlaceMarketOrder(ctx context.Context, symbol string, side models.Side, qty float64) (models.Fill, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", string(side))
	params.Set("type", "MARKET")
	params.Set("quantity", helper.FormatQty(qty))
	params.Set("newOrderRespType", "RESULT")

	body, err := b.signed(ctx, http.MethodPost, "/fapi/v1/order", params)
	if err != nil {
		return models.Fill{}, err
	}

	var resp struct {
		OrderID     int64  `json:"orderId"`
		Status      string `json:"status"`
		AvgPrice    string `json:"avgPrice"`
		ExecutedQty string `json:"executedQty"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.Fill{}, errors.Wrap(err, "decode order")
	}

	fill := models.Fill{OrderID: resp.OrderID}
	// avgPrice/executedQty бывают пустыми у NEW: оставляем нули
	fill.Price, _ = strconv.ParseFloat(resp.AvgPrice, 64)
	fill.Quantity, _ = strconv.ParseFloat(resp.ExecutedQty, 64)

	b.log.Info("order placed",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Float64("qty", qty),
		zap.Int64("order_id", fill.OrderID),
		zap.String("status", resp.Status),
		zap.Float64("avg_price", fill.Price))
	return fill, nil
}

// OpenPositionQuantity: |positionAmt| по символу (/fapi/v2/positionRisk).
func (b *Binance) OpenPositionQuantity(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	body, err := b.signed(ctx, http.MethodGet, "/fapi/v2/positionRisk", params)
	if err != nil {
		return 0, err
	}

	var rows []struct {
		Symbol      string `json:"symbol"`
		PositionAmt string `json:"positionAmt"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return 0, errors.Wrap(err, "decode positionRisk")
	}

	var total float64
	for _, r := range rows {
		if r.Symbol != symbol {
			continue
		}
		amt, err := parseFloat(r.PositionAmt, "positionAmt")
		if err != nil {
			return 0, err
		}
		total += math.Abs(amt)
	}
	return total, nil
}

// Klines: свечи (/fapi/v1/klines), публичный запрос.
func (b *Binance) Klines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", helper.NormInterval(interval))
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	body, err := b.public(ctx, "/fapi/v1/klines", params)
	if err != nil {
		return nil, err
	}

	var raw [][]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.Wrap(err, "decode klines")
	}

	out := make([]models.Candle, 0, len(raw))
	for i, row := range raw {
		if len(row) < 7 {
			return nil, errors.Errorf("kline %d: %d fields", i, len(row))
		}
		c := models.Candle{
			OpenTime:  time.UnixMilli(toInt64(row[0])),
			Open:      toFloat(row[1]),
			High:      toFloat(row[2]),
			Low:       toFloat(row[3]),
			Close:     toFloat(row[4]),
			Volume:    toFloat(row[5]),
			CloseTime: time.UnixMilli(toInt64(row[6])),
		}
		out = append(out, c)
	}
	return out, nil
}

// ===== transport =====

func (b *Binance) public(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := b.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return b.do(req)
}

func (b *Binance) signed(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	if b.apiKey == "" || b.apiSecret == "" {
		return nil, errors.New("binance credentials are not configured")
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(b.now().UnixMilli(), 10))
	params.Set("recvWindow", strconv.FormatInt(b.recvWindow, 10))

	query := params.Encode()
	query += "&signature=" + b.sign(query)

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path+"?"+query, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", b.apiKey)
	return b.do(req)
}

func (b *Binance) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(b.apiSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

func (b *Binance) do(req *http.Request) ([]byte, error) {
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if resp.StatusCode/100 != 2 {
		return nil, parseAPIError(resp.StatusCode, body)
	}
	return body, nil
}

func parseFloat(s, field string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s %q", field, s)
	}
	return v, nil
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	case float64:
		return x
	}
	return 0
}

func toInt64(v any) int64 {
	switch x := v.(type) {
	case float64:
		return int64(x)
	case int64:
		return x
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	}
	return 0
}
