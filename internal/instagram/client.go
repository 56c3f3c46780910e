package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"trimgram/internal/domain"
)

const defaultBaseURL = "https://i.instagram.com/api/v1"

// userAgent fijo de app movil; Instagram rechaza requests sin uno creible.
const userAgent = "Instagram 275.0.0.27.98 Android (33/13; 420dpi; 1080x2340; samsung; SM-G991B; o1s; exynos2100; en_US)"

// HTTPClient implementa API contra la web API privada de Instagram.
// Una instancia queda ligada a una sesion autenticada; el pacing entre
// requests de lectura lo maneja el propio cliente.
type HTTPClient struct {
	baseURL      string
	client       *http.Client
	logger       *zap.Logger
	requestDelay time.Duration

	mu                  sync.Mutex
	userID              int64
	username            string
	csrfToken           string
	twoFactorIdentifier string
}

// NewHTTPClient construye un cliente con cookie jar propio.
func NewHTTPClient(baseURL string, requestDelay time.Duration, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	jar, _ := cookiejar.New(nil)
	return &HTTPClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		requestDelay: requestDelay,
		logger:       logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

type apiUser struct {
	PK            int64  `json:"pk"`
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	ProfilePicURL string `json:"profile_pic_url"`
	IsVerified    bool   `json:"is_verified"`
	IsPrivate     bool   `json:"is_private"`
}

type loginResponse struct {
	LoggedInUser  apiUser `json:"logged_in_user"`
	TwoFactorInfo struct {
		TwoFactorIdentifier string `json:"two_factor_identifier"`
	} `json:"two_factor_info"`
	TwoFactorRequired bool   `json:"two_factor_required"`
	Status            string `json:"status"`
	Message           string `json:"message"`
}

type userListResponse struct {
	Users     []apiUser `json:"users"`
	NextMaxID string    `json:"next_max_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
}

type feedResponse struct {
	Items []struct {
		ID      string `json:"id"`
		PK      int64  `json:"pk"`
		TakenAt int64  `json:"taken_at"`
		User    struct {
			PK int64 `json:"pk"`
		} `json:"user"`
		Caption struct {
			Text string `json:"text"`
		} `json:"caption"`
	} `json:"items"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type commentListResponse struct {
	Comments []struct {
		User struct {
			PK       int64  `json:"pk"`
			Username string `json:"username"`
		} `json:"user"`
		Text string `json:"text"`
	} `json:"comments"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type friendshipResponse struct {
	FriendshipStatus struct {
		Following bool `json:"following"`
	} `json:"friendship_status"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Login autentica con usuario y password. Deja el challenge 2FA abierto
// cuando la cuenta lo requiere.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (LoginResult, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	status, body, err := c.do(ctx, http.MethodPost, "/accounts/login/", form)
	if err != nil {
		return LoginResult{}, fmt.Errorf("login request: %w", err)
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return LoginResult{}, fmt.Errorf("login response: %w", err)
	}

	if lr.TwoFactorRequired {
		c.mu.Lock()
		c.username = username
		c.twoFactorIdentifier = lr.TwoFactorInfo.TwoFactorIdentifier
		c.mu.Unlock()
		return LoginResult{}, domain.ErrTwoFactorRequired
	}
	if err := apiError(status, lr.Status, lr.Message); err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			return LoginResult{}, err
		}
		return LoginResult{}, fmt.Errorf("%w: %s", domain.ErrAuthentication, lr.Message)
	}
	if lr.LoggedInUser.PK == 0 {
		return LoginResult{}, domain.ErrAuthentication
	}

	c.mu.Lock()
	c.userID = lr.LoggedInUser.PK
	c.username = username
	c.mu.Unlock()

	return LoginResult{UserID: lr.LoggedInUser.PK}, nil
}

// ResolveTwoFactor envia el codigo del challenge abierto por Login.
func (c *HTTPClient) ResolveTwoFactor(ctx context.Context, code string) (LoginResult, error) {
	c.mu.Lock()
	identifier := c.twoFactorIdentifier
	username := c.username
	c.mu.Unlock()
	if identifier == "" {
		return LoginResult{}, fmt.Errorf("%w: no pending two-factor challenge", domain.ErrAuthentication)
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("verification_code", code)
	form.Set("two_factor_identifier", identifier)

	status, body, err := c.do(ctx, http.MethodPost, "/accounts/two_factor_login/", form)
	if err != nil {
		return LoginResult{}, fmt.Errorf("two factor request: %w", err)
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return LoginResult{}, fmt.Errorf("two factor response: %w", err)
	}
	if status >= 400 || lr.LoggedInUser.PK == 0 {
		return LoginResult{}, fmt.Errorf("%w: %s", domain.ErrAuthentication, lr.Message)
	}

	c.mu.Lock()
	c.userID = lr.LoggedInUser.PK
	c.twoFactorIdentifier = ""
	c.mu.Unlock()

	return LoginResult{UserID: lr.LoggedInUser.PK}, nil
}

// CurrentUserID devuelve el usuario autenticado o ErrNotAuthenticated.
func (c *HTTPClient) CurrentUserID() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID == 0 {
		return 0, domain.ErrNotAuthenticated
	}
	return c.userID, nil
}

// Followers trae el set completo de followers, paginando.
func (c *HTTPClient) Followers(ctx context.Context, userID int64) (map[int64]domain.FollowRelationship, error) {
	return c.fetchUserList(ctx, fmt.Sprintf("/friendships/%d/followers/", userID))
}

// Following trae el set completo de cuentas seguidas, paginando.
func (c *HTTPClient) Following(ctx context.Context, userID int64) (map[int64]domain.FollowRelationship, error) {
	return c.fetchUserList(ctx, fmt.Sprintf("/friendships/%d/following/", userID))
}

func (c *HTTPClient) fetchUserList(ctx context.Context, path string) (map[int64]domain.FollowRelationship, error) {
	result := make(map[int64]domain.FollowRelationship)
	maxID := ""

	for {
		c.pace()
		p := path
		if maxID != "" {
			p += "?max_id=" + url.QueryEscape(maxID)
		}
		status, body, err := c.do(ctx, http.MethodGet, p, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", path, err)
		}
		var ul userListResponse
		if err := json.Unmarshal(body, &ul); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if err := apiError(status, ul.Status, ul.Message); err != nil {
			return nil, err
		}
		for _, u := range ul.Users {
			result[u.PK] = domain.FollowRelationship{
				UserID:        u.PK,
				Username:      u.Username,
				FullName:      u.FullName,
				ProfilePicURL: u.ProfilePicURL,
				IsVerified:    u.IsVerified,
				IsPrivate:     u.IsPrivate,
			}
		}
		if ul.NextMaxID == "" {
			return result, nil
		}
		maxID = ul.NextMaxID
	}
}

// Posts trae hasta count publicaciones recientes. Cuentas privadas o sin
// posts devuelven slice vacio, no error.
func (c *HTTPClient) Posts(ctx context.Context, userID int64, count int) ([]domain.Post, error) {
	c.pace()
	path := fmt.Sprintf("/feed/user/%d/?count=%d", userID, count)
	status, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: user %d", domain.ErrUserNotFound, userID)
	}
	var fr feedResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	if err := apiError(status, fr.Status, fr.Message); err != nil {
		if strings.Contains(strings.ToLower(fr.Message), "private") {
			c.logger.Debug("private account, skipping posts", zap.Int64("user_id", userID))
			return []domain.Post{}, nil
		}
		return nil, err
	}

	posts := make([]domain.Post, 0, len(fr.Items))
	for _, item := range fr.Items {
		id := item.ID
		if id == "" && item.PK != 0 {
			id = strconv.FormatInt(item.PK, 10)
		}
		posts = append(posts, domain.Post{
			PostID:    id,
			UserID:    item.User.PK,
			Caption:   item.Caption.Text,
			CreatedAt: time.Unix(item.TakenAt, 0).UTC(),
		})
		if len(posts) == count {
			break
		}
	}
	return posts, nil
}

// Likers devuelve los user IDs que dieron like a un post.
func (c *HTTPClient) Likers(ctx context.Context, postID string) ([]int64, error) {
	c.pace()
	status, body, err := c.do(ctx, http.MethodGet, "/media/"+url.PathEscape(postID)+"/likers/", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch likers: %w", err)
	}
	var ul userListResponse
	if err := json.Unmarshal(body, &ul); err != nil {
		return nil, fmt.Errorf("decode likers: %w", err)
	}
	if err := apiError(status, ul.Status, ul.Message); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(ul.Users))
	for _, u := range ul.Users {
		ids = append(ids, u.PK)
	}
	return ids, nil
}

// Comments devuelve los comentarios de un post con su autor.
func (c *HTTPClient) Comments(ctx context.Context, postID string) ([]domain.Comment, error) {
	c.pace()
	status, body, err := c.do(ctx, http.MethodGet, "/media/"+url.PathEscape(postID)+"/comments/", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch comments: %w", err)
	}
	var cl commentListResponse
	if err := json.Unmarshal(body, &cl); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	if err := apiError(status, cl.Status, cl.Message); err != nil {
		return nil, err
	}
	comments := make([]domain.Comment, 0, len(cl.Comments))
	for _, cm := range cl.Comments {
		comments = append(comments, domain.Comment{
			UserID:   cm.User.PK,
			Username: cm.User.Username,
			Text:     cm.Text,
		})
	}
	return comments, nil
}

// Unfollow corta la relacion con un usuario y devuelve el resultado upstream.
func (c *HTTPClient) Unfollow(ctx context.Context, userID int64) (bool, error) {
	c.pace()
	status, body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/friendships/destroy/%d/", userID), url.Values{})
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrUnfollow, err)
	}
	var fr friendshipResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return false, fmt.Errorf("%w: decode response", domain.ErrUnfollow)
	}
	if err := apiError(status, fr.Status, fr.Message); err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			return false, err
		}
		return false, fmt.Errorf("%w: %s", domain.ErrUnfollow, fr.Message)
	}
	return !fr.FriendshipStatus.Following, nil
}

func (c *HTTPClient) pace() {
	if c.requestDelay > 0 {
		time.Sleep(c.requestDelay)
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, form url.Values) (int, []byte, error) {
	var req *http.Request
	var err error
	if form != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	c.mu.Lock()
	if c.csrfToken != "" {
		req.Header.Set("X-CSRFToken", c.csrfToken)
	}
	c.mu.Unlock()

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "csrftoken" && cookie.Value != "" {
			c.mu.Lock()
			c.csrfToken = cookie.Value
			c.mu.Unlock()
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// apiError traduce status HTTP y mensajes de Instagram a errores de dominio.
func apiError(status int, apiStatus, message string) error {
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, message)
	}
	lower := strings.ToLower(message)
	if strings.Contains(lower, "wait a few minutes") {
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, message)
	}
	if status >= 400 || (apiStatus != "" && apiStatus != "ok") {
		return fmt.Errorf("instagram api error: status=%d message=%q", status, message)
	}
	return nil
}
