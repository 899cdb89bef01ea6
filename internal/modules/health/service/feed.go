package service

import (
	"net/http"
	"sync"

	"macd_scanner/internal/models"
	"macd_scanner/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

// Feed — ws-фид отчётов сканера для дашборда: каждый завершённый проход
// уходит всем подключённым клиентам одним JSON-кадром.
type Feed struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewFeed() *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]bool),
	}
}

func (f *Feed) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("ws upgrade: %v", err)
		return
	}

	f.mu.Lock()
	f.conns[conn] = true
	f.mu.Unlock()

	// read-loop только чтобы заметить закрытие со стороны клиента
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				f.drop(conn)
				return
			}
		}
	}()
}

func (f *Feed) drop(conn *websocket.Conn) {
	f.mu.Lock()
	if f.conns[conn] {
		delete(f.conns, conn)
		_ = conn.Close()
	}
	f.mu.Unlock()
}

func (f *Feed) Broadcast(report models.ScanReport) {
	payload, err := sonic.Marshal(report)
	if err != nil {
		logger.Error("ws marshal report: %v", err)
		return
	}

	f.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(f.conns))
	for c := range f.conns {
		conns = append(conns, c)
	}
	f.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			// медленный/умерший клиент — выпиливаем
			f.drop(c)
		}
	}
}
