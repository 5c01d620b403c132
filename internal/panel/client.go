// Package panel реализует клиент административной панели XUI:
// авторизацию, выпуск клиентских учёток и построение ссылок подключения.
// Отказ панели не фатален: вызывающая сторона переходит на подменный конфиг.
package panel

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/vpn-shop-bot/internal/config"
)

const clientIDLength = 24

const clientIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Client инкапсулирует HTTP-сессию с панелью XUI.
// Cookie авторизации живут в jar: повторный логин панель не требует,
// пока сессия не истекла.
type Client struct {
	baseURL    string
	username   string
	password   string
	inboundID  int
	httpClient *http.Client
}

// Result результат выпуска учётки. При Success=false поле Error
// содержит диагностическое сообщение, остальные поля пусты.
type Result struct {
	Success  bool
	Error    string
	ClientID string
	Label    string
	Links    ShareLinks
}

// addClientRequest тело запроса addClient: настройки клиентов
// передаются вложенной JSON-строкой, как того требует API панели.
type addClientRequest struct {
	ID       int    `json:"id"`
	Settings string `json:"settings"`
}

type clientSettings struct {
	Clients []clientEntry `json:"clients"`
}

type clientEntry struct {
	ID         string `json:"id"`
	Flow       string `json:"flow"`
	Email      string `json:"email"`
	LimitIP    int    `json:"limitIp"`
	TotalGB    int64  `json:"totalGB"`
	ExpiryTime int64  `json:"expiryTime"`
	Enable     bool   `json:"enable"`
	TgID       string `json:"tgId"`
	SubID      string `json:"subId"`
}

type addClientResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
}

// NewClient создаёт клиент панели с фиксированным таймаутом запросов.
func NewClient(cfg config.Panel) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		username:  cfg.Username,
		password:  cfg.Password,
		inboundID: cfg.InboundID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}, nil
}

// Login авторизуется в панели. Возвращает false при любом сбое:
// сетевом или отказе панели. Вызывается один раз при старте,
// повторной авторизации по истечении сессии нет.
func (c *Client) Login(ctx context.Context) bool {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return resp.StatusCode == http.StatusOK
}

// CreateClient выпускает новую учётку на настроенном inbound.
// Любая ошибка, включая транспортную, превращается в Result
// с Success=false и не покидает границу метода.
func (c *Client) CreateClient(ctx context.Context, label string, days int) Result {
	clientID := generateClientID()
	expiryTime := time.Now().AddDate(0, 0, days).UnixMilli()

	settings, err := json.Marshal(clientSettings{
		Clients: []clientEntry{{
			ID:         clientID,
			Flow:       "",
			Email:      label,
			LimitIP:    0,
			TotalGB:    0,
			ExpiryTime: expiryTime,
			Enable:     true,
			TgID:       "",
			SubID:      uuid.NewString(),
		}},
	})
	if err != nil {
		return Result{Error: err.Error()}
	}

	body, err := json.Marshal(addClientRequest{
		ID:       c.inboundID,
		Settings: string(settings),
	})
	if err != nil {
		return Result{Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/panel/api/inbounds/addClient", bytes.NewReader(body))
	if err != nil {
		return Result{Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Error: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return Result{Error: fmt.Sprintf("unexpected status: %s", resp.Status)}
	}

	var panelResp addClientResponse
	if err := json.NewDecoder(resp.Body).Decode(&panelResp); err != nil {
		return Result{Error: err.Error()}
	}
	if !panelResp.Success {
		return Result{Error: fmt.Sprintf("panel rejected client: %s", panelResp.Msg)}
	}

	return Result{
		Success:  true,
		ClientID: clientID,
		Label:    label,
		Links:    DeriveShareLinks(label, clientID, c.Domain()),
	}
}

// Domain возвращает хост панели без схемы и порта.
func (c *Client) Domain() string {
	domain := strings.TrimPrefix(c.baseURL, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	if idx := strings.IndexByte(domain, ':'); idx >= 0 {
		domain = domain[:idx]
	}
	if idx := strings.IndexByte(domain, '/'); idx >= 0 {
		domain = domain[:idx]
	}
	return domain
}

// generateClientID возвращает случайный 24-символьный идентификатор
// из букв и цифр. Уникальность вероятностная и не проверяется:
// при такой длине коллизии пренебрежимо редки.
func generateClientID() string {
	buf := make([]byte, clientIDLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand на поддерживаемых платформах не отказывает
		panic(err)
	}
	for i, b := range buf {
		buf[i] = clientIDAlphabet[int(b)%len(clientIDAlphabet)]
	}
	return string(buf)
}
