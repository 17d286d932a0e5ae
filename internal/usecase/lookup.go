package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	nonUsernameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	ipv4Pattern      = regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)
	domainPattern    = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
)

const lookupUserAgent = "Mozilla/5.0 (compatible; SecurityWeb/1.0)"

// usernamePlatforms maps platform names to profile URL templates.
var usernamePlatforms = map[string]string{
	"github":    "https://github.com/%s",
	"twitter":   "https://twitter.com/%s",
	"instagram": "https://instagram.com/%s",
	"linkedin":  "https://linkedin.com/in/%s",
	"facebook":  "https://facebook.com/%s",
	"reddit":    "https://reddit.com/user/%s",
	"youtube":   "https://youtube.com/@%s",
	"tiktok":    "https://tiktok.com/@%s",
}

// LookupService proxies the OSINT lookups: username presence probing,
// IP geolocation and domain DNS/WHOIS.
type LookupService struct {
	client      *http.Client
	whoisAPIKey string
	logger      *zap.Logger
	now         func() time.Time
}

// NewLookupService constructs a LookupService with a shared HTTP client.
func NewLookupService(client *http.Client, whoisAPIKey string, logger *zap.Logger) *LookupService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{
		client:      client,
		whoisAPIKey: whoisAPIKey,
		logger:      logger,
		now:         time.Now,
	}
}

// UsernameScanResult reports presence per platform.
type UsernameScanResult struct {
	Username string          `json:"username"`
	Results  map[string]bool `json:"results"`
}

// ScanUsername HEAD-probes the known platforms for the username. Probe
// failures count as absent rather than failing the whole scan.
func (s *LookupService) ScanUsername(ctx context.Context, username string) (*UsernameScanResult, error) {
	sanitized := nonUsernameChars.ReplaceAllString(username, "")
	if len(sanitized) < 2 || len(sanitized) > 30 {
		return nil, newValidationError("username", "Username must be 2-30 characters long")
	}

	result := &UsernameScanResult{
		Username: sanitized,
		Results:  make(map[string]bool, len(usernamePlatforms)),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for platform, template := range usernamePlatforms {
		wg.Add(1)
		go func(platform, template string) {
			defer wg.Done()
			found := s.probe(ctx, fmt.Sprintf(template, sanitized))
			mu.Lock()
			result.Results[platform] = found
			mu.Unlock()
		}(platform, template)
	}
	wg.Wait()

	return result, nil
}

func (s *LookupService) probe(ctx context.Context, target string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, target, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", lookupUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("platform probe failed", zap.String("url", target), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// IPInfo is the formatted geolocation result.
type IPInfo struct {
	IP           string    `json:"ip"`
	Country      string    `json:"country"`
	Region       string    `json:"region"`
	City         string    `json:"city"`
	Timezone     string    `json:"timezone"`
	ISP          string    `json:"isp"`
	Organization string    `json:"organization"`
	Coordinates  LatLon    `json:"coordinates"`
	IsMobile     bool      `json:"isMobile"`
	IsProxy      bool      `json:"isProxy"`
	IsHosting    bool      `json:"isHosting"`
	CheckedAt    time.Time `json:"checkedAt"`
}

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IPLookup queries ip-api.com for geolocation and network flags.
func (s *LookupService) IPLookup(ctx context.Context, ip string) (*IPInfo, error) {
	ip = strings.TrimSpace(ip)
	if !ipv4Pattern.MatchString(ip) {
		return nil, newValidationError("ip", "Invalid IP address format")
	}

	endpoint := fmt.Sprintf(
		"http://ip-api.com/json/%s?fields=status,message,country,countryCode,region,regionName,city,zip,lat,lon,timezone,isp,org,as,mobile,proxy,hosting,query",
		ip,
	)

	var payload struct {
		Status     string  `json:"status"`
		Message    string  `json:"message"`
		Country    string  `json:"country"`
		RegionName string  `json:"regionName"`
		City       string  `json:"city"`
		Timezone   string  `json:"timezone"`
		ISP        string  `json:"isp"`
		Org        string  `json:"org"`
		Lat        float64 `json:"lat"`
		Lon        float64 `json:"lon"`
		Mobile     bool    `json:"mobile"`
		Proxy      bool    `json:"proxy"`
		Hosting    bool    `json:"hosting"`
		Query      string  `json:"query"`
	}
	if err := s.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("ip lookup: %w", err)
	}

	if payload.Status == "fail" {
		message := payload.Message
		if message == "" {
			message = "Failed to get IP information"
		}
		return nil, newValidationError("ip", message)
	}

	return &IPInfo{
		IP:           payload.Query,
		Country:      payload.Country,
		Region:       payload.RegionName,
		City:         payload.City,
		Timezone:     payload.Timezone,
		ISP:          payload.ISP,
		Organization: payload.Org,
		Coordinates:  LatLon{Lat: payload.Lat, Lon: payload.Lon},
		IsMobile:     payload.Mobile,
		IsProxy:      payload.Proxy,
		IsHosting:    payload.Hosting,
		CheckedAt:    s.now().UTC(),
	}, nil
}

// DomainInfo is the combined DNS and WHOIS result.
type DomainInfo struct {
	Domain    string       `json:"domain"`
	DNS       DomainDNS    `json:"dns"`
	Whois     *DomainWhois `json:"whois"`
	CheckedAt time.Time    `json:"checkedAt"`
}

type DomainDNS struct {
	HasRecords  bool     `json:"hasRecords"`
	IPAddresses []string `json:"ipAddresses"`
	Status      int      `json:"status"`
}

type DomainWhois struct {
	Registrar   string `json:"registrar,omitempty"`
	CreatedDate string `json:"createdDate,omitempty"`
	ExpiryDate  string `json:"expiryDate,omitempty"`
	Status      string `json:"status,omitempty"`
}

// DomainLookup resolves A records via Google DNS and, when an API key is
// configured, fetches WHOIS data. WHOIS failures degrade to a nil section.
func (s *LookupService) DomainLookup(ctx context.Context, domainName string) (*DomainInfo, error) {
	domainName = strings.ToLower(strings.TrimSpace(domainName))
	if domainName == "" || !domainPattern.MatchString(domainName) {
		return nil, newValidationError("domain", "Invalid domain format")
	}

	var dnsPayload struct {
		Status int `json:"Status"`
		Answer []struct {
			Data string `json:"data"`
		} `json:"Answer"`
	}
	endpoint := "https://dns.google/resolve?name=" + url.QueryEscape(domainName) + "&type=A"
	if err := s.getJSON(ctx, endpoint, &dnsPayload); err != nil {
		return nil, fmt.Errorf("dns lookup: %w", err)
	}

	addresses := make([]string, 0, len(dnsPayload.Answer))
	for _, answer := range dnsPayload.Answer {
		addresses = append(addresses, answer.Data)
	}

	info := &DomainInfo{
		Domain: domainName,
		DNS: DomainDNS{
			HasRecords:  len(addresses) > 0,
			IPAddresses: addresses,
			Status:      dnsPayload.Status,
		},
		CheckedAt: s.now().UTC(),
	}

	if s.whoisAPIKey != "" {
		info.Whois = s.whoisLookup(ctx, domainName)
	}

	return info, nil
}

func (s *LookupService) whoisLookup(ctx context.Context, domainName string) *DomainWhois {
	var payload struct {
		Registrar struct {
			Name string `json:"name"`
		} `json:"registrar"`
		CreationDate string `json:"creationDate"`
		ExpiresDate  string `json:"expiresDate"`
		Status       string `json:"status"`
	}

	endpoint := fmt.Sprintf(
		"https://whois.whoisxmlapi.com/api/v1?apiKey=%s&domainName=%s",
		url.QueryEscape(s.whoisAPIKey),
		url.QueryEscape(domainName),
	)
	if err := s.getJSON(ctx, endpoint, &payload); err != nil {
		s.logger.Warn("whois lookup failed", zap.String("domain", domainName), zap.Error(err))
		return nil
	}

	return &DomainWhois{
		Registrar:   payload.Registrar.Name,
		CreatedDate: payload.CreationDate,
		ExpiryDate:  payload.ExpiresDate,
		Status:      payload.Status,
	}
}

func (s *LookupService) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", lookupUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
