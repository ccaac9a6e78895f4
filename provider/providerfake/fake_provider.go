package providerfake

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-oauth-quickstart/oauthmodel"
	"github.com/jrsteele09/go-oauth-quickstart/provider"
	"github.com/jrsteele09/go-oauth-quickstart/token"
)

var (
	_ provider.WebClient      = (*FakeProvider)(nil)
	_ provider.DeviceClient   = (*FakeProvider)(nil)
	_ provider.UserInfoClient = (*FakeProvider)(nil)
	_ provider.JWTClient      = (*FakeJWTProvider)(nil)
)

// FakeProvider is an in-memory provider for the web, PKCE and device flows.
// Results are queued per operation; an empty queue falls back to the default token.
type FakeProvider struct {
	lock sync.Mutex

	PKCE bool
	// Default is returned by exchanges and refreshes when nothing is queued
	Default token.Token
	User    oauthmodel.User

	exchangeResults []result
	refreshResults  []result
	deviceResults   []result

	Exchanges     []Exchange
	Refreshes     []string
	DeviceCodes   int
	DevicePolls   int
	UsersMeTokens []string
	UsersMeError  error
	DeviceCodeErr error
}

// Exchange records one GetAccessToken call
type Exchange struct {
	Code         string
	CodeVerifier string
}

type result struct {
	tok token.Token
	err error
}

func NewFakeProvider(defaultToken token.Token) *FakeProvider {
	return &FakeProvider{Default: defaultToken}
}

// QueueExchange queues the outcome of the next GetAccessToken call
func (p *FakeProvider) QueueExchange(tok token.Token, err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.exchangeResults = append(p.exchangeResults, result{tok, err})
}

// QueueRefresh queues the outcome of the next RefreshToken call
func (p *FakeProvider) QueueRefresh(tok token.Token, err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.refreshResults = append(p.refreshResults, result{tok, err})
}

// QueueDevice queues the outcome of the next GetDeviceToken call
func (p *FakeProvider) QueueDevice(tok token.Token, err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.deviceResults = append(p.deviceResults, result{tok, err})
}

func (p *FakeProvider) next(queue *[]result) (token.Token, error) {
	if len(*queue) == 0 {
		return p.Default, nil
	}
	r := (*queue)[0]
	*queue = (*queue)[1:]
	return r.tok, r.err
}

func (p *FakeProvider) GenOAuthURL(state string) (provider.AuthURL, error) {
	if state == "" {
		return provider.AuthURL{}, errors.New("state is required")
	}
	authURL := provider.AuthURL{URL: "https://provider.test/authorize?state=" + state}
	if p.PKCE {
		authURL.CodeVerifier = "verifier-" + state
		authURL.URL += "&code_challenge_method=" + string(oauthmodel.CodeMethodTypeS256)
	}
	return authURL, nil
}

func (p *FakeProvider) GetAccessToken(_ context.Context, code, codeVerifier string) (token.Token, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.Exchanges = append(p.Exchanges, Exchange{Code: code, CodeVerifier: codeVerifier})
	return p.next(&p.exchangeResults)
}

func (p *FakeProvider) RefreshToken(_ context.Context, refreshToken string) (token.Token, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.Refreshes = append(p.Refreshes, refreshToken)
	return p.next(&p.refreshResults)
}

func (p *FakeProvider) GetDeviceCode(context.Context) (oauthmodel.DeviceCode, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.DeviceCodeErr != nil {
		return oauthmodel.DeviceCode{}, p.DeviceCodeErr
	}
	p.DeviceCodes++
	return oauthmodel.DeviceCode{
		DeviceCode:      fmt.Sprintf("device-%d", p.DeviceCodes),
		UserCode:        fmt.Sprintf("USER-%04d", p.DeviceCodes),
		VerificationURL: "https://provider.test/device",
		Interval:        1,
	}, nil
}

func (p *FakeProvider) GetDeviceToken(context.Context, oauthmodel.DeviceCode) (token.Token, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.DevicePolls++
	return p.next(&p.deviceResults)
}

func (p *FakeProvider) UsersMe(_ context.Context, accessToken string) (oauthmodel.User, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.UsersMeTokens = append(p.UsersMeTokens, accessToken)
	if p.UsersMeError != nil {
		return oauthmodel.User{}, p.UsersMeError
	}
	return p.User, nil
}

// ExchangeCount returns how many codes have been exchanged
func (p *FakeProvider) ExchangeCount() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.Exchanges)
}

// FakeJWTProvider returns queued results for the JWT flow
type FakeJWTProvider struct {
	lock    sync.Mutex
	Default token.Token
	results []result
	Calls   int
}

func NewFakeJWTProvider(defaultToken token.Token) *FakeJWTProvider {
	return &FakeJWTProvider{Default: defaultToken}
}

func (p *FakeJWTProvider) Queue(tok token.Token, err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.results = append(p.results, result{tok, err})
}

func (p *FakeJWTProvider) GetAccessToken(context.Context) (token.Token, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.Calls++
	if len(p.results) == 0 {
		return p.Default, nil
	}
	r := p.results[0]
	p.results = p.results[1:]
	return r.tok, r.err
}
