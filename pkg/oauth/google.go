// Package oauth 第三方身份提供方适配。
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jomadlcrz/Class-Schedule-System/config"
	"github.com/jomadlcrz/Class-Schedule-System/internal/dto"
)

// ProviderGoogle 账号表中记录的 provider 名称
const ProviderGoogle = "google"

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

var ErrUserInfo = errors.New("获取第三方用户信息失败")

// GoogleProvider 基于 OAuth2 授权码流程的 Google 登录
type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider 创建 Google 身份提供方
func NewGoogleProvider(cfg *config.GoogleConfig) *GoogleProvider {
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// Name provider 名称
func (p *GoogleProvider) Name() string { return ProviderGoogle }

// AuthCodeURL 生成跳转到 Google 授权页的地址
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchange 用授权码换取 token 并拉取用户信息
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*dto.Identity, error) {
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("授权码换取 token 失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUserInfo, resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	if info.Sub == "" || info.Email == "" {
		return nil, fmt.Errorf("%w: 缺少 sub 或 email", ErrUserInfo)
	}

	return &dto.Identity{
		Provider: ProviderGoogle,
		Subject:  info.Sub,
		Email:    info.Email,
		Name:     info.Name,
		Picture:  info.Picture,
		Verified: info.EmailVerified,
	}, nil
}
