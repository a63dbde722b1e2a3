// Package identity は外部IDプロバイダの管理APIクライアントを提供する。
// 招待付きユーザー作成・ユーザー削除・一覧取得・招待トークン検証を含む。
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// 呼び出し元がエラー種別を判定するための番兵エラー。
var (
	// ErrAlreadyRegistered は同一メールのIDが既に登録済みであることを示す。
	ErrAlreadyRegistered = errors.New("identity already registered")
	// ErrInvalidEmail はIDプロバイダがメールアドレス形式を拒否したことを示す。
	ErrInvalidEmail = errors.New("identity rejected email address")
	// ErrNotFound は対象ユーザーがIDプロバイダに存在しないことを示す。
	ErrNotFound = errors.New("identity user not found")
	// ErrInvalidToken は招待トークンが無効または期限切れであることを示す。
	ErrInvalidToken = errors.New("invalid or expired invite token")
)

// User はIDプロバイダ上のユーザーを表す。
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	// ConfirmedAt が未設定のユーザーは招待未承諾（仮登録）状態。
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	// UserMetadata には招待時に付与した役割などの属性が入る。
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// SessionTokens は招待承諾時にIDプロバイダが発行するセッション。
type SessionTokens struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	// User には承諾したユーザー本体が入る。
	User *User `json:"user,omitempty"`
}

// InviteParams は招待付きユーザー作成のパラメータ。
type InviteParams struct {
	Email       string
	RedirectURL string
	// Metadata は作成されるユーザーのuser_metadataに保存される。
	Metadata map[string]any
}

// Client はIDプロバイダ管理APIのHTTPクライアント。
// すべてのリクエストにサービスロールキーをBearerトークンとして付与する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // テスト用にエンドポイントを差し替え可能
	serviceKey string
}

// NewClient はClient の新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, serviceKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		serviceKey: serviceKey,
	}
}

// CreateInvitedUser は招待メール送信付きでユーザーを作成する。
// 同一メールが登録済みの場合はErrAlreadyRegistered、
// メール形式が拒否された場合はErrInvalidEmailを返す。
func (c *Client) CreateInvitedUser(ctx context.Context, params InviteParams) (*User, error) {
	payload := map[string]any{
		"email": params.Email,
	}
	if params.Metadata != nil {
		payload["data"] = params.Metadata
	}

	reqURL := c.baseURL + "/admin/users/invite"
	if params.RedirectURL != "" {
		reqURL += "?redirect_to=" + url.QueryEscape(params.RedirectURL)
	}

	body, status, err := c.do(ctx, http.MethodPost, reqURL, payload)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		var user User
		if err := json.Unmarshal(body, &user); err != nil {
			return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
		}
		if user.ID == "" {
			return nil, fmt.Errorf("IDプロバイダのレスポンスにユーザーIDが含まれていません")
		}
		return &user, nil
	case status >= 400 && status < 500:
		// ステータスと本文のメッセージから登録済み・形式不正を判別する
		return nil, classifyRejection(status, body)
	default:
		c.logger.Error("IDプロバイダの招待APIがエラーステータスを返しました",
			slog.Int("http_status", status),
		)
		return nil, fmt.Errorf("IDプロバイダがステータス %d を返しました", status)
	}
}

// DeleteUser は指定されたユーザーをIDプロバイダから削除する。
// 対象が存在しない場合（404）はエラーにせず成功として扱う（冪等）。
func (c *Client) DeleteUser(ctx context.Context, identityID string) error {
	reqURL := c.baseURL + "/admin/users/" + url.PathEscape(identityID)

	_, status, err := c.do(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return err
	}

	switch status {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		c.logger.Error("IDプロバイダのユーザー削除APIがエラーステータスを返しました",
			slog.Int("http_status", status),
			slog.String("identity_id", identityID),
		)
		return fmt.Errorf("IDプロバイダがステータス %d を返しました", status)
	}
}

// GetUser は指定されたユーザーをIDプロバイダから取得する。
// 存在しない場合はErrNotFoundを返す。
func (c *Client) GetUser(ctx context.Context, identityID string) (*User, error) {
	reqURL := c.baseURL + "/admin/users/" + url.PathEscape(identityID)

	body, status, err := c.do(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		var user User
		if err := json.Unmarshal(body, &user); err != nil {
			return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
		}
		return &user, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("IDプロバイダがステータス %d を返しました", status)
	}
}

// ListUsers はIDプロバイダの全ユーザーをページ送りで取得する。
// 孤児ID整理ジョブが全件走査に使用する。
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	const perPage = 100

	var all []User
	for page := 1; ; page++ {
		reqURL := c.baseURL + "/admin/users?page=" + strconv.Itoa(page) + "&per_page=" + strconv.Itoa(perPage)

		body, status, err := c.do(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("IDプロバイダがステータス %d を返しました", status)
		}

		var result struct {
			Users []User `json:"users"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
		}

		all = append(all, result.Users...)
		if len(result.Users) < perPage {
			return all, nil
		}
	}
}

// VerifyInvite は招待トークンを検証し、発行されたセッショントークンを返す。
// passwordが指定された場合は承諾と同時にパスワードを設定する。
// トークンが無効・期限切れの場合はErrInvalidTokenを返す。
func (c *Client) VerifyInvite(ctx context.Context, token, password string) (*SessionTokens, error) {
	payload := map[string]any{
		"type":  "invite",
		"token": token,
	}
	if password != "" {
		payload["password"] = password
	}

	body, status, err := c.do(ctx, http.MethodPost, c.baseURL+"/verify", payload)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK:
		var session SessionTokens
		if err := json.Unmarshal(body, &session); err != nil {
			return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
		}
		if session.AccessToken == "" {
			return nil, fmt.Errorf("IDプロバイダのレスポンスにアクセストークンが含まれていません")
		}
		return &session, nil
	case status >= 400 && status < 500:
		return nil, ErrInvalidToken
	default:
		return nil, fmt.Errorf("IDプロバイダがステータス %d を返しました", status)
	}
}

// do はJSONリクエストを実行し、レスポンスボディとステータスコードを返す。
// 通信エラー（接続不可・タイムアウト）の場合のみerrを返し、
// HTTPエラーステータスの分類は呼び出し元に委ねる。
func (c *Client) do(ctx context.Context, method, reqURL string, payload any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("リクエストJSONの生成に失敗しました: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("IDプロバイダAPIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("method", method),
		)
		return nil, 0, fmt.Errorf("IDプロバイダへの接続に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	return body, resp.StatusCode, nil
}

// classifyRejection は4xxレスポンスのステータスと本文メッセージから拒否理由を判別する。
// 番兵エラーに変換するのは登録済み（ErrAlreadyRegistered）と
// メール形式不正（ErrInvalidEmail）のみ。サービスキー不正の401や
// レート制限の429など、それ以外の4xxはプロバイダエラーとして包んで返す。
func classifyRejection(status int, body []byte) error {
	var errResp struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &errResp)

	msg := errResp.Msg
	if msg == "" {
		msg = errResp.Message
	}
	if msg == "" {
		msg = errResp.Error
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "already registered") || strings.Contains(lower, "already been registered") || strings.Contains(lower, "already exists"):
		return ErrAlreadyRegistered
	case (status == http.StatusBadRequest || status == http.StatusUnprocessableEntity) && strings.Contains(lower, "email"):
		return ErrInvalidEmail
	case msg != "":
		return fmt.Errorf("IDプロバイダがステータス %d を返しました: %s", status, msg)
	default:
		return fmt.Errorf("IDプロバイダがステータス %d を返しました", status)
	}
}
