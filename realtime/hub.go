package realtime

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/egyw/proyek-fpw-sub002/utils"
)

// Event types
const (
	EventOrderUpdate     = "order_update"
	EventPaymentUpdate   = "payment_update"
	EventPaymentSuccess  = "payment_success"
	EventShippingUpdate  = "shipping_update"
	EventReturnUpdate    = "return_update"
	EventStaffNotif      = "staff_notification"
	EventDashboardUpdate = "dashboard_update"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub menampung koneksi websocket dashboard (admin/staff) dan melakukan
// broadcast event order/pembayaran secara real-time.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]string),
}

// RegisterClient menambahkan connection ke set dengan role
func RegisterClient(conn *websocket.Conn, role string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = role
}

// UnregisterClient melepaskan connection
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
}

// Broadcast mengirim event ke semua client yang terhubung.
func Broadcast(event string, data interface{}) {
	BroadcastToRoles(event, data, nil)
}

// BroadcastToRoles mengirim event hanya ke role tertentu; roles nil berarti
// semua role. Koneksi yang gagal ditulisi langsung dilepas.
func BroadcastToRoles(event string, data interface{}, roles []string) {
	msg := Message{Event: event, Data: data}
	payload, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Failed to marshal realtime message: %v", err)
		return
	}

	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	for conn, role := range hub.clients {
		if roles != nil && !containsRole(roles, role) {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			utils.ErrorLogger.Printf("Failed to write to websocket client (role=%s): %v", role, err)
			conn.Close()
			delete(hub.clients, conn)
		}
	}
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// ClientCount mengembalikan jumlah client yang sedang terhubung.
func ClientCount() int {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	return len(hub.clients)
}
