package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/egyw/proyek-fpw-sub002/utils"
)

const provincesPayload = `{
  "rajaongkir": {
    "status": {"code": 200, "description": "OK"},
    "results": [
      {"province_id": "9", "province": "Jawa Barat"},
      {"province_id": "11", "province": "Jawa Timur"}
    ]
  }
}`

const costPayload = `{
  "rajaongkir": {
    "status": {"code": 200, "description": "OK"},
    "results": [
      {
        "code": "jne",
        "name": "Jalur Nugraha Ekakurir (JNE)",
        "costs": [
          {
            "service": "REG",
            "description": "Layanan Reguler",
            "cost": [{"value": 21000, "etd": "2-3"}]
          },
          {
            "service": "YES",
            "description": "Yakin Esok Sampai",
            "cost": [{"value": 42000, "etd": "1-1"}]
          },
          {
            "service": "KOSONG",
            "description": "Tanpa tarif",
            "cost": []
          }
        ]
      }
    ]
  }
}`

const errorPayload = `{
  "rajaongkir": {
    "status": {"code": 400, "description": "Invalid key"}
  }
}`

func TestGetProvinces(t *testing.T) {
	utils.InitLogger()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/province", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("key"))
		w.Write([]byte(provincesPayload))
	}))
	defer server.Close()

	svc := NewRajaOngkirService("test-api-key", server.URL, "444", nil)
	provinces, err := svc.GetProvinces(context.Background())
	assert.NoError(t, err)
	assert.Len(t, provinces, 2)
	assert.Equal(t, "Jawa Barat", provinces[0].Province)
}

func TestGetCost(t *testing.T) {
	utils.InitLogger()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cost", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "444", r.PostForm.Get("origin"))
		assert.Equal(t, "152", r.PostForm.Get("destination"))
		assert.Equal(t, "122200", r.PostForm.Get("weight"))
		assert.Equal(t, "jne", r.PostForm.Get("courier"))
		w.Write([]byte(costPayload))
	}))
	defer server.Close()

	svc := NewRajaOngkirService("test-api-key", server.URL, "444", nil)
	rates, err := svc.GetCost(context.Background(), "152", 122200, "jne")
	assert.NoError(t, err)

	// layanan tanpa tarif dibuang dari hasil
	assert.Len(t, rates, 2)
	assert.Equal(t, "REG", rates[0].Service)
	assert.Equal(t, 21000, rates[0].Cost)
	assert.Equal(t, "2-3", rates[0].ETD)
}

func TestGetCostMinimumWeight(t *testing.T) {
	utils.InitLogger()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		// API menolak berat nol, minimal dikirim 1 gram
		assert.Equal(t, "1", r.PostForm.Get("weight"))
		w.Write([]byte(costPayload))
	}))
	defer server.Close()

	svc := NewRajaOngkirService("test-api-key", server.URL, "444", nil)
	_, err := svc.GetCost(context.Background(), "152", 0, "jne")
	assert.NoError(t, err)
}

func TestAPIStatusError(t *testing.T) {
	utils.InitLogger()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(errorPayload))
	}))
	defer server.Close()

	svc := NewRajaOngkirService("bad-key", server.URL, "444", nil)
	_, err := svc.GetProvinces(context.Background())
	assert.ErrorContains(t, err, "Invalid key")
}
