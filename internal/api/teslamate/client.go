package teslamate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/tesdash/internal/models"
)

// DefaultTestTimeout 连通性测试超时
const DefaultTestTimeout = 10 * time.Second

const maxErrorBody = 512

// Credentials API 地址与令牌来源，每次请求都会重新读取
type Credentials interface {
	APIURL(ctx context.Context) (string, error)
	APIToken(ctx context.Context) (string, error)
}

// Client TeslaMate API 客户端
type Client struct {
	httpClient  *http.Client
	creds       Credentials
	logger      *zap.Logger
	userAgent   string
	testTimeout time.Duration
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 使用自定义 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithUserAgent 设置 User-Agent
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTestTimeout 设置 TestConnection 的超时
func WithTestTimeout(d time.Duration) Option {
	return func(c *Client) { c.testTimeout = d }
}

// NewClient 创建新的 TeslaMate API 客户端
// 除 TestConnection 外不设置客户端超时，由调用方通过 ctx 控制
func NewClient(creds Credentials, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{},
		creds:       creds,
		logger:      zap.NewNop(),
		userAgent:   "tesdash/1.0",
		testTimeout: DefaultTestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest 执行请求，令牌存在时携带 Bearer 认证头
func (c *Client) doRequest(ctx context.Context, op, method, path string) (*http.Response, error) {
	baseURL, err := c.creds.APIURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: read api url: %w", op, err)
	}
	if baseURL == "" {
		return nil, fmt.Errorf("%s: api url not configured", op)
	}
	token, err := c.creds.APIToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: read api token: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(baseURL, "/")+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}

	requestID := uuid.NewString()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	requestDuration.WithLabelValues(op).Observe(elapsed.Seconds())

	if err != nil {
		requestsTotal.WithLabelValues(op, "error").Inc()
		c.logger.Debug("TeslaMate API request failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%s request: %w", op, err)
		}
		return nil, fmt.Errorf("%s request: %w: %w", op, ErrUnreachable, err)
	}

	requestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()
	c.logger.Debug("TeslaMate API request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", elapsed),
	)

	return resp, nil
}

// readBody 读取响应体，非 2xx 时返回 StatusError
func (c *Client) readBody(op string, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w: %w", op, ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// getJSON GET 并从 data.<key> 中解出结果
func (c *Client) getJSON(ctx context.Context, op, path, key string, out interface{}) error {
	resp, err := c.doRequest(ctx, op, http.MethodGet, path)
	if err != nil {
		return err
	}
	body, err := c.readBody(op, resp)
	if err != nil {
		return err
	}
	return decodeEnvelope(op, body, key, out)
}

// decodeEnvelope 解析 { "data": { "<key>": ... } }
func decodeEnvelope(op string, body []byte, key string, out interface{}) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return &EnvelopeError{Op: op, Key: key, Reason: "not a JSON object: " + err.Error()}
	}
	if isNull(env.Data) {
		return &EnvelopeError{Op: op, Key: key, Reason: "missing (no data object)"}
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return &EnvelopeError{Op: op, Key: key, Reason: "missing (data is not an object)"}
	}

	raw, ok := data[key]
	if !ok || isNull(raw) {
		return &EnvelopeError{Op: op, Key: key, Reason: "missing"}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &EnvelopeError{Op: op, Key: key, Reason: "does not match schema: " + err.Error()}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// ListCars 获取车辆列表
func (c *Client) ListCars(ctx context.Context) ([]models.Car, error) {
	var cars []models.Car
	if err := c.getJSON(ctx, "list cars", "/api/v1/cars", "cars", &cars); err != nil {
		return nil, err
	}
	if err := models.ValidateCars(cars); err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	return cars, nil
}

// GetCarStatus 获取车辆实时状态
func (c *Client) GetCarStatus(ctx context.Context, carID int64) (*models.CarStatus, error) {
	var status models.CarStatus
	if err := c.getJSON(ctx, "get car status", fmt.Sprintf("/api/v1/cars/%d/status", carID), "status", &status); err != nil {
		return nil, err
	}
	if err := status.Validate(); err != nil {
		return nil, fmt.Errorf("get car status: %w", err)
	}
	return &status, nil
}

// ListDrives 获取行程列表
func (c *Client) ListDrives(ctx context.Context, carID int64) ([]models.Drive, error) {
	var drives []models.Drive
	if err := c.getJSON(ctx, "list drives", fmt.Sprintf("/api/v1/cars/%d/drives", carID), "drives", &drives); err != nil {
		return nil, err
	}
	if err := models.ValidateDrives(drives); err != nil {
		return nil, fmt.Errorf("list drives: %w", err)
	}
	return drives, nil
}

// GetDrive 获取行程详情及轨迹采样
func (c *Client) GetDrive(ctx context.Context, carID, driveID int64) (*models.DriveWithDetails, error) {
	var drive models.DriveWithDetails
	path := fmt.Sprintf("/api/v1/cars/%d/drives/%d", carID, driveID)
	if err := c.getJSON(ctx, "get drive", path, "drive", &drive); err != nil {
		return nil, err
	}
	if err := drive.Validate(); err != nil {
		return nil, fmt.Errorf("get drive: %w", err)
	}
	return &drive, nil
}

// ListCharges 获取充电列表
func (c *Client) ListCharges(ctx context.Context, carID int64) ([]models.Charge, error) {
	var charges []models.Charge
	if err := c.getJSON(ctx, "list charges", fmt.Sprintf("/api/v1/cars/%d/charges", carID), "charges", &charges); err != nil {
		return nil, err
	}
	if err := models.ValidateCharges(charges); err != nil {
		return nil, fmt.Errorf("list charges: %w", err)
	}
	return charges, nil
}

// GetCharge 获取充电详情及曲线采样
func (c *Client) GetCharge(ctx context.Context, carID, chargeID int64) (*models.ChargeWithDetails, error) {
	var charge models.ChargeWithDetails
	path := fmt.Sprintf("/api/v1/cars/%d/charges/%d", carID, chargeID)
	if err := c.getJSON(ctx, "get charge", path, "charge", &charge); err != nil {
		return nil, err
	}
	if err := charge.Validate(); err != nil {
		return nil, fmt.Errorf("get charge: %w", err)
	}
	return &charge, nil
}

// WakeUp 唤醒车辆
// 返回原始响应体，成功仅表示命令已被接受
func (c *Client) WakeUp(ctx context.Context, carID int64) (json.RawMessage, error) {
	resp, err := c.doRequest(ctx, "wake up", http.MethodPost, fmt.Sprintf("/api/v1/cars/%d/wake_up", carID))
	if err != nil {
		return nil, err
	}
	body, err := c.readBody("wake up", resp)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// TestConnection 连通性测试，与 ListCars 走同一路径并校验响应，超时后失败
func (c *Client) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.testTimeout)
	defer cancel()

	if _, err := c.ListCars(ctx); err != nil {
		return fmt.Errorf("test connection: %w", err)
	}
	return nil
}
