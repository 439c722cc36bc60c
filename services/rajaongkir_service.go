package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/egyw/proyek-fpw-sub002/utils"
)

// Province adalah provinsi asal/tujuan dari API RajaOngkir.
type Province struct {
	ProvinceID string `json:"province_id"`
	Province   string `json:"province"`
}

// City adalah kota tujuan pengiriman.
type City struct {
	CityID     string `json:"city_id"`
	ProvinceID string `json:"province_id"`
	Type       string `json:"type"`
	CityName   string `json:"city_name"`
	PostalCode string `json:"postal_code"`
}

// ShippingRate adalah satu layanan kurir hasil lookup tarif.
type ShippingRate struct {
	Service     string `json:"service"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
	ETD         string `json:"etd"`
}

// RajaOngkirService adalah client HTTP untuk agregator tarif ongkir.
// Daftar provinsi/kota dan hasil lookup tarif dicache di Redis dengan TTL
// supaya tidak membakar kuota API di halaman checkout.
type RajaOngkirService struct {
	apiKey     string
	baseURL    string
	originCity string
	httpClient *http.Client
	cache      *redis.Client // nil = cache dimatikan
}

var (
	rajaOngkirService *RajaOngkirService
	rajaOngkirOnce    sync.Once
)

const (
	provinceCacheTTL = 24 * time.Hour
	cityCacheTTL     = 24 * time.Hour
	costCacheTTL     = 10 * time.Minute
)

// GetRajaOngkirService returns singleton instance of RajaOngkirService
func GetRajaOngkirService() *RajaOngkirService {
	rajaOngkirOnce.Do(func() {
		baseURL := os.Getenv("RAJAONGKIR_BASE_URL")
		if baseURL == "" {
			baseURL = "https://api.rajaongkir.com/starter"
		}
		originCity := os.Getenv("STORE_ORIGIN_CITY_ID")
		if originCity == "" {
			originCity = "444" // Surabaya
		}

		var cache *redis.Client
		if addr := os.Getenv("REDIS_ADDR"); addr != "" {
			cache = redis.NewClient(&redis.Options{
				Addr:     addr,
				Password: os.Getenv("REDIS_PASSWORD"),
			})
		}

		rajaOngkirService = NewRajaOngkirService(os.Getenv("RAJAONGKIR_API_KEY"), baseURL, originCity, cache)
	})
	return rajaOngkirService
}

// NewRajaOngkirService creates a new instance of RajaOngkirService
func NewRajaOngkirService(apiKey, baseURL, originCity string, cache *redis.Client) *RajaOngkirService {
	return &RajaOngkirService{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		originCity: originCity,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      cache,
	}
}

// OriginCity mengembalikan kode kota asal pengiriman toko.
func (rs *RajaOngkirService) OriginCity() string {
	return rs.originCity
}

// GetProvinces mengambil daftar provinsi (cache 24 jam).
func (rs *RajaOngkirService) GetProvinces(ctx context.Context) ([]Province, error) {
	var provinces []Province
	if rs.cacheGet(ctx, "rajaongkir:provinces", &provinces) {
		return provinces, nil
	}

	var envelope struct {
		RajaOngkir struct {
			Status  apiStatus  `json:"status"`
			Results []Province `json:"results"`
		} `json:"rajaongkir"`
	}
	if err := rs.doGet(ctx, "/province", nil, &envelope); err != nil {
		return nil, err
	}
	if err := envelope.RajaOngkir.Status.check(); err != nil {
		return nil, err
	}

	rs.cacheSet(ctx, "rajaongkir:provinces", envelope.RajaOngkir.Results, provinceCacheTTL)
	return envelope.RajaOngkir.Results, nil
}

// GetCities mengambil daftar kota untuk satu provinsi (cache 24 jam).
func (rs *RajaOngkirService) GetCities(ctx context.Context, provinceID string) ([]City, error) {
	cacheKey := "rajaongkir:cities:" + provinceID

	var cities []City
	if rs.cacheGet(ctx, cacheKey, &cities) {
		return cities, nil
	}

	params := url.Values{}
	if provinceID != "" {
		params.Set("province", provinceID)
	}

	var envelope struct {
		RajaOngkir struct {
			Status  apiStatus `json:"status"`
			Results []City    `json:"results"`
		} `json:"rajaongkir"`
	}
	if err := rs.doGet(ctx, "/city", params, &envelope); err != nil {
		return nil, err
	}
	if err := envelope.RajaOngkir.Status.check(); err != nil {
		return nil, err
	}

	rs.cacheSet(ctx, cacheKey, envelope.RajaOngkir.Results, cityCacheTTL)
	return envelope.RajaOngkir.Results, nil
}

// GetCost menghitung tarif pengiriman dari kota asal toko ke kota tujuan.
// weightGrams adalah hasil agregasi berat keranjang (lihat shipping_weight.go),
// minimal dihitung 1 gram karena API menolak berat nol.
func (rs *RajaOngkirService) GetCost(ctx context.Context, destinationCity string, weightGrams int, courier string) ([]ShippingRate, error) {
	if weightGrams < 1 {
		weightGrams = 1
	}

	cacheKey := fmt.Sprintf("rajaongkir:cost:%s:%s:%d:%s", rs.originCity, destinationCity, weightGrams, courier)
	var rates []ShippingRate
	if rs.cacheGet(ctx, cacheKey, &rates) {
		return rates, nil
	}

	form := url.Values{}
	form.Set("origin", rs.originCity)
	form.Set("destination", destinationCity)
	form.Set("weight", strconv.Itoa(weightGrams))
	form.Set("courier", courier)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rs.baseURL+"/cost", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("key", rs.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var envelope struct {
		RajaOngkir struct {
			Status  apiStatus `json:"status"`
			Results []struct {
				Code  string `json:"code"`
				Name  string `json:"name"`
				Costs []struct {
					Service     string `json:"service"`
					Description string `json:"description"`
					Cost        []struct {
						Value int    `json:"value"`
						ETD   string `json:"etd"`
					} `json:"cost"`
				} `json:"costs"`
			} `json:"results"`
		} `json:"rajaongkir"`
	}
	if err := rs.do(req, &envelope); err != nil {
		return nil, err
	}
	if err := envelope.RajaOngkir.Status.check(); err != nil {
		return nil, err
	}

	rates = make([]ShippingRate, 0)
	for _, result := range envelope.RajaOngkir.Results {
		for _, cost := range result.Costs {
			if len(cost.Cost) == 0 {
				continue
			}
			rates = append(rates, ShippingRate{
				Service:     cost.Service,
				Description: cost.Description,
				Cost:        cost.Cost[0].Value,
				ETD:         cost.Cost[0].ETD,
			})
		}
	}

	rs.cacheSet(ctx, cacheKey, rates, costCacheTTL)
	return rates, nil
}

type apiStatus struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

func (s apiStatus) check() error {
	if s.Code != http.StatusOK {
		return fmt.Errorf("rajaongkir API error %d: %s", s.Code, s.Description)
	}
	return nil
}

func (rs *RajaOngkirService) doGet(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := rs.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("key", rs.apiKey)

	return rs.do(req, out)
}

func (rs *RajaOngkirService) do(req *http.Request, out interface{}) error {
	resp, err := rs.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rajaongkir HTTP %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error unmarshaling response: %w", err)
	}
	return nil
}

func (rs *RajaOngkirService) cacheGet(ctx context.Context, key string, out interface{}) bool {
	if rs.cache == nil {
		return false
	}
	raw, err := rs.cache.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false
	}
	return true
}

func (rs *RajaOngkirService) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if rs.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := rs.cache.Set(ctx, key, raw, ttl).Err(); err != nil {
		utils.InfoLogger.Printf("Failed to cache %s: %v", key, err)
	}
}
